package models

// CartEntry rows are unique per (user, item); adding again bumps Quantity.
type CartEntry struct {
	ID          uint           `gorm:"primaryKey"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_cart_user_item"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE"`
	InventoryID uint           `gorm:"not null;uniqueIndex:idx_cart_user_item"`
	Inventory   *InventoryItem `gorm:"foreignKey:InventoryID;constraint:OnDelete:CASCADE"`
	Quantity    int            `gorm:"not null;default:1"`
}
