package models

type RegisterDeviceRequest struct {
	Token string `json:"token" validate:"required"`
}
