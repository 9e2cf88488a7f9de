// Package handler はアイテムカタログのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"secondchance_backend/internal/api"
	"secondchance_backend/internal/feature/items/domain/entity"
	"secondchance_backend/internal/feature/items/transport/http/dto"
	"secondchance_backend/internal/feature/items/usecase"
)

// ItemUsecase はアイテムカタログのユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type ItemUsecase interface {
	List(ctx context.Context) ([]entity.Item, error)
	Get(ctx context.Context, id string) (*entity.Item, error)
	Create(ctx context.Context, item entity.Item, upload *usecase.ImageUpload) (*entity.Item, error)
	Update(ctx context.Context, id string, upd entity.ItemUpdate) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, f entity.SearchFilter) ([]entity.Item, error)
}

// ItemHandler はアイテムのHTTPリクエストを処理します。
type ItemHandler struct {
	items ItemUsecase
}

// NewItemHandler はItemHandlerの新しいインスタンスを生成します。
func NewItemHandler(items ItemUsecase) *ItemHandler {
	return &ItemHandler{items: items}
}

// List は全アイテムを返します。
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.items.List(c.Request.Context())
	if err != nil {
		internalError(c, "failed to list items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get はIDで1件のアイテムを返します。
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, "failed to get item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create はアイテムを登録します。
// - multipart/form-data の場合は file フィールドの画像を保存
// - バリデーションエラー時は400
// - 成功時は201と登録したアイテムを返却
func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemReq
	multipart := strings.HasPrefix(c.ContentType(), "multipart/form-data")

	var err error
	if multipart {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		slog.Warn("item validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationErrors(err))
		return
	}

	var upload *usecase.ImageUpload
	if multipart {
		fh, err := c.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			slog.Warn("invalid upload", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid file upload"})
			return
		default:
			f, err := fh.Open()
			if err != nil {
				internalError(c, "failed to open upload", err)
				return
			}
			defer func() { _ = f.Close() }()
			upload = &usecase.ImageUpload{
				Name:        fh.Filename,
				Body:        f,
				Size:        fh.Size,
				ContentType: fh.Header.Get("Content-Type"),
			}
		}
	}

	item, err := h.items.Create(c.Request.Context(), req.ToEntity(), upload)
	if err != nil {
		internalError(c, "failed to create item", err)
		return
	}
	slog.Info("item created", "id", item.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, item)
}

// Update はカテゴリ・状態・経過日数・説明を更新します。
func (h *ItemHandler) Update(c *gin.Context) {
	var req dto.UpdateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("item update validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationErrors(err))
		return
	}

	if err := h.items.Update(c.Request.Context(), c.Param("id"), req.ToEntity()); err != nil {
		h.respondLookupError(c, "failed to update item", err)
		return
	}
	c.JSON(http.StatusOK, dto.UploadedResp{Uploaded: "success"})
}

// Delete はアイテムを削除します。
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.items.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondLookupError(c, "failed to delete item", err)
		return
	}
	slog.Info("item deleted", "id", c.Param("id"), "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.DeletedResp{Deleted: "success"})
}

// Search はクエリパラメータでアイテムを絞り込みます。
// age_yearsが整数でない場合は400を返却します。
func (h *ItemHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ValidationErrors(err))
		return
	}

	f := entity.SearchFilter{Name: q.Name, Category: q.Category, Condition: q.Condition}
	if q.AgeYears != "" {
		n, err := strconv.Atoi(q.AgeYears)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{Errors: []api.FieldError{
				{Field: "age_years", Message: "must be an integer"},
			}})
			return
		}
		f.MaxAgeYears = &n
	}

	items, err := h.items.Search(c.Request.Context(), f)
	if err != nil {
		internalError(c, "failed to search items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) respondLookupError(c *gin.Context, msg string, err error) {
	if errors.Is(err, usecase.ErrItemNotFound) {
		slog.Warn("item not found", "id", c.Param("id"), "remote_addr", c.ClientIP())
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: usecase.ErrItemNotFound.Error()})
		return
	}
	internalError(c, msg, err)
}

// internalError は予期しないエラーを記録し、詳細を含まない500を返却します。
func internalError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "error", err, "remote_addr", c.ClientIP())
	c.String(http.StatusInternalServerError, api.InternalServerError)
}
