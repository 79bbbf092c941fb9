package transport

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Disabled *bool  `json:"disabled"`
	IsAdmin  *bool  `json:"is_admin"`
}

type PatchUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Disabled *bool   `json:"disabled"`
	IsAdmin  *bool   `json:"is_admin"`
}

type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type CreateToDoRequest struct {
	Description        string  `json:"description"`
	Done               bool    `json:"done"`
	IsFavorite         bool    `json:"is_favorite"`
	ReminderDatetime   *string `json:"reminder_datetime"`
	ExpirationDatetime *string `json:"expiration_datetime"`
}

type PatchToDoRequest struct {
	Description        *string `json:"description"`
	Done               *bool   `json:"done"`
	IsFavorite         *bool   `json:"is_favorite"`
	ReminderDatetime   *string `json:"reminder_datetime"`
	ExpirationDatetime *string `json:"expiration_datetime"`
}
