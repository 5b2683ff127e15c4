package dto

// NotificationFilterRequest filters the notification list
type NotificationFilterRequest struct {
	UnreadOnly bool `form:"unreadOnly"`
}

// UnreadCountResponse drives the notification badge
type UnreadCountResponse struct {
	Count        int64 `json:"count" example:"3"`
	PollInterval int   `json:"pollInterval" example:"30"`
}
