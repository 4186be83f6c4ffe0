package dbmodels

// Push notification targets, one row per token
type DeviceToken struct {
	Base
	Token string `json:"token" gorm:"uniqueIndex:device_token_index;not null"`
}
