package models

import (
	"time"

	"gorm.io/gorm"
)

// Ingredient represents an ingredient from the catalog
type Ingredient struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Name            string         `gorm:"not null;index" json:"name"`
	MeasurementUnit string         `gorm:"not null" json:"measurement_unit"`
}
