package dto

// UpdateReq is the profile patch accepted by /update.
// Absent fields leave the stored value untouched.
type UpdateReq struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
}

// TokenResp carries a freshly issued token.
type TokenResp struct {
	AuthToken string `json:"authtoken"`
}
