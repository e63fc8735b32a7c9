package dto

type CreateBookingRequest struct {
	Tour  string  `json:"tour" validate:"required,uuid"`
	User  string  `json:"user" validate:"required,uuid"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Paid  *bool   `json:"paid"`
}

type UpdateBookingRequest struct {
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
	Paid  *bool    `json:"paid"`
}
