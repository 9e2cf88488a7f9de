// Package dto はアイテムカタログのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import "secondchance_backend/internal/feature/items/domain/entity"

// CreateItemReq は POST /items のリクエストです。multipart/form-data とJSONの両方を受け付けます。
type CreateItemReq struct {
	Name        string           `json:"name" form:"name" binding:"required,max=255"`
	Category    string           `json:"category" form:"category" binding:"max=100"`
	Condition   string           `json:"condition" form:"condition" binding:"max=100"`
	PostedBy    string           `json:"posted_by" form:"posted_by" binding:"max=255"`
	Zipcode     string           `json:"zipcode" form:"zipcode" binding:"max=20"`
	AgeDays     int              `json:"age_days" form:"age_days" binding:"gte=0"`
	Description string           `json:"description" form:"description"`
	Comments    []entity.Comment `json:"comments" form:"-"`
}

// ToEntity converts the request into an unsaved item.
func (r CreateItemReq) ToEntity() entity.Item {
	return entity.Item{
		Name:        r.Name,
		Category:    r.Category,
		Condition:   r.Condition,
		PostedBy:    r.PostedBy,
		Zipcode:     r.Zipcode,
		AgeDays:     r.AgeDays,
		Description: r.Description,
		Comments:    r.Comments,
	}
}

// UpdateItemReq は PUT /items/:id のリクエストボディです。
type UpdateItemReq struct {
	Category    string `json:"category" binding:"max=100"`
	Condition   string `json:"condition" binding:"max=100"`
	AgeDays     int    `json:"age_days" binding:"gte=0"`
	Description string `json:"description"`
}

// ToEntity converts the request into the replaced field set.
func (r UpdateItemReq) ToEntity() entity.ItemUpdate {
	return entity.ItemUpdate{
		Category:    r.Category,
		Condition:   r.Condition,
		AgeDays:     r.AgeDays,
		Description: r.Description,
	}
}

// SearchQuery は GET /search のクエリパラメータです。
// age_yearsは整数でなければならないため、文字列で受けてハンドラーで変換します。
type SearchQuery struct {
	Name      string `form:"name"`
	Category  string `form:"category"`
	Condition string `form:"condition"`
	AgeYears  string `form:"age_years"`
}

// UploadedResp は PUT 成功時のレスポンスです。
type UploadedResp struct {
	Uploaded string `json:"uploaded"`
}

// DeletedResp は DELETE 成功時のレスポンスです。
type DeletedResp struct {
	Deleted string `json:"deleted"`
}
