package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the invoiced party.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;default:''"`
	Phone     string    `gorm:"column:phone;not null;default:''"`
	Address   string    `gorm:"column:address;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
