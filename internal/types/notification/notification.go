package notification

type NotificationType string

const (
	NotificationChallengePosted    NotificationType = "challenge_posted"
	NotificationHostAssigned       NotificationType = "host_assigned"
	NotificationPunishmentAssigned NotificationType = "punishment_assigned"
)

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
