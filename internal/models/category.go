package models

import "time"

// ExpenseCategory is a predefined category expenses may reference. The
// registry is seeded at startup and validated for existence only.
type ExpenseCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Icon      string    `gorm:"size:50" json:"icon"`
	Color     string    `gorm:"size:7;default:'#4CAF50'" json:"color"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCategories is the seed set installed on first boot.
var DefaultCategories = []ExpenseCategory{
	{Name: "Food & Dining", Icon: "restaurant", Color: "#FF6B6B"},
	{Name: "Transportation", Icon: "car", Color: "#4ECDC4"},
	{Name: "Shopping", Icon: "bag", Color: "#45B7D1"},
	{Name: "Entertainment", Icon: "movie", Color: "#96CEB4"},
	{Name: "Bills & Utilities", Icon: "bolt", Color: "#FECA57"},
	{Name: "Travel", Icon: "plane", Color: "#FF9FF3"},
	{Name: "Healthcare", Icon: "hospital", Color: "#54A0FF"},
	{Name: "Education", Icon: "book", Color: "#5F27CD"},
	{Name: "Groceries", Icon: "cart", Color: "#00D2D3"},
	{Name: "Other", Icon: "note", Color: "#747D8C"},
}
