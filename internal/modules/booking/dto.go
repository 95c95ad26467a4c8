package booking

type ReserveRequest struct {
	ServiceID     int64   `json:"service_id" validate:"required,gt=0"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string  `json:"time" validate:"required,datetime=15:04"`
	UserID        int64   `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"max=32"`
	PaymentStatus string  `json:"payment_status" validate:"max=32"`
	Address       string  `json:"address" validate:"max=500"`
	Phone         string  `json:"phone" validate:"max=32"`
	Instructions  string  `json:"instructions" validate:"max=2000"`
	Confirm       bool    `json:"confirm"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RescheduleRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,max=32"`
}

type ListQuery struct {
	ServiceID int64  `form:"service_id"`
	UserID    int64  `form:"user_id"`
	Status    string `form:"status"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

type ReservationList struct {
	Items   interface{} `json:"items"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}
