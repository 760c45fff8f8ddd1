package models

// Credentials are used for a single login attempt and never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// APIErrorBody is the error envelope the backend uses for non-2xx responses.
type APIErrorBody struct {
	Detail string `json:"detail"`
}
