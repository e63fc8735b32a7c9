package dto

type CreateReviewRequest struct {
	Review string `json:"review" validate:"required,max=2000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	// Tour можно не передавать во вложенном маршруте /tours/:tourId/reviews
	Tour string `json:"tour" validate:"omitempty,uuid"`
}

type UpdateReviewRequest struct {
	Review *string `json:"review" validate:"omitempty,min=1,max=2000"`
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
}
