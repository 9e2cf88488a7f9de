package dto

// RegisterReq represents the request body for the /register endpoint.
// It uses Gin's binding tags for validation.
type RegisterReq struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	// bcryptが扱える上限（password.MaxBytes）をバイト数で検証する
	Password  string `json:"password" binding:"required,maxbytes=72"`
}

// RegisterResp is returned on successful registration.
type RegisterResp struct {
	AuthToken string `json:"authtoken"`
	Email     string `json:"email"`
}
