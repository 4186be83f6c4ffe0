package models

import "time"

// Generic body for errors and acknowledgements
type MessageResponse struct {
	Message string `json:"message"`
}

type LatestImageResponse struct {
	ImageUrl  string    `json:"imageUrl"`
	Timestamp time.Time `json:"timestamp"`
}
