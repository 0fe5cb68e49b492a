package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Supplier struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	Email     string       `gorm:"type:varchar(254);not null" json:"email"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// UpsertInput is the supplier payload embedded in an order write.
// A nil ID requests a new supplier; a set ID updates that supplier in place.
type UpsertInput struct {
	ID    *string
	Name  string
	Email string
}
