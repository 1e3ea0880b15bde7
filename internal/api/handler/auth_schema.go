package handler

type signupRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=20"`
	Email    string   `json:"email"    validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Roles    []string `json:"roles"`
}

type signinRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type signinResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"accessToken"`
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Message string `json:"message"`
}
