package payment

// StatusEvent is published by the payment provider integration. The routing
// key is "payment.<status>"; Data.Status overrides it when set.
type StatusEvent struct {
	Event   string `json:"event"`
	Version int    `json:"version"`
	Data    struct {
		PaymentID     string `json:"payment_id"`
		ReservationID int64  `json:"reservation_id"`
		Status        string `json:"status"`
		Amount        int64  `json:"amount"`
		Currency      string `json:"currency"`
		Method        string `json:"method"`
	} `json:"data"`
}
