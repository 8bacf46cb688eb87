package dto

type AdminLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

type AuthResponse struct {
	AdminID uint    `json:"admin_id"`
	Email   string  `json:"email"`
	Expiry  float64 `json:"exp"`
	Iat     float64 `json:"iat"`
}
