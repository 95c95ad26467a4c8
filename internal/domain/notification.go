package domain

type NotificationType string

const (
	NotifReservationCreated     NotificationType = "reservation_created"
	NotifReservationCancelled   NotificationType = "reservation_cancelled"
	NotifReservationRescheduled NotificationType = "reservation_rescheduled"
	NotifReservationStatus      NotificationType = "reservation_status_changed"
)
