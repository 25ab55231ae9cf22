package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InventoryType string

const (
	InventoryFrame      InventoryType = "frame"
	InventoryLens       InventoryType = "lens"
	InventorySunglasses InventoryType = "sunglasses"
	InventoryAccessory  InventoryType = "accessory"
)

func (t InventoryType) Valid() bool {
	switch t {
	case InventoryFrame, InventoryLens, InventorySunglasses, InventoryAccessory:
		return true
	}
	return false
}

type InventoryItem struct {
	ID       uint                            `gorm:"primaryKey"`
	Type     InventoryType                   `gorm:"size:20;not null;index"`
	Brand    string                          `gorm:"size:100"`
	Model    string                          `gorm:"size:100"`
	Price    decimal.Decimal                 `gorm:"type:numeric(10,2);not null"`
	Stock    int                             `gorm:"not null;default:0"`
	ImageURL string                          `gorm:"type:text"`
	Details  datatypes.JSONType[ItemDetails] `gorm:"not null"`
}
