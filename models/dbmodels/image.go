package dbmodels

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is the metadata of one uploaded capture. Rows are never updated.
type Image struct {
	ID        uuid.UUID `json:"_id" gorm:"primaryKey;autoIncrement:false"`
	ImageUrl  string    `json:"imageUrl" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"index:image_timestamp_index;not null"`
}

// BeforeCreate assigns the id and timestamp, whatever the caller put there.
// Ids are UUIDv7 so they order the same way as the timestamps.
func (img *Image) BeforeCreate(tx *gorm.DB) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	img.ID = id
	// postgres keeps microseconds, truncate so every driver stores the same instant
	img.Timestamp = time.Now().UTC().Truncate(time.Microsecond)
	return nil
}
