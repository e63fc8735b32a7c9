package dto

// UpdateMeRequest - данные профиля текущего пользователя (JSON или multipart).
// Password и PasswordConfirm читаются только для того, чтобы отклонить запрос.
type UpdateMeRequest struct {
	Name            *string `json:"name" form:"name" validate:"omitempty,min=1,max=100"`
	Email           *string `json:"email" form:"email" validate:"omitempty,email"`
	Password        string  `json:"password" form:"password"`
	PasswordConfirm string  `json:"passwordConfirm" form:"passwordConfirm"`
}

// AdminUpdateUserRequest - изменение пользователя администратором. Пароль так не меняется.
type AdminUpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,is-user-role"`
	Photo *string `json:"photo" validate:"omitempty,max=255"`
}
