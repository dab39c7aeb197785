package model

import "time"

// Purchase is one acquired lot of a commodity and its disposition.
// A row is Open while both Delivered and Sold are false; either flag is terminal.
type Purchase struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Item          string     `gorm:"size:128;not null;index:idx_purchases_item_count,priority:1" json:"item"`
	Count         int        `gorm:"not null;index:idx_purchases_item_count,priority:2" json:"count"`
	BuyPrice      int64      `gorm:"not null" json:"buyPrice"`
	TotalCost     int64      `gorm:"not null" json:"totalCost"`
	BoughtAt      string     `gorm:"size:128;not null" json:"boughtAt"`
	BoughtSystem  string     `gorm:"size:128;not null" json:"boughtSystem"`
	BoughtTime    time.Time  `gorm:"not null;index" json:"boughtTime"`
	Delivered     bool       `gorm:"not null;default:false" json:"delivered"`
	DeliveredTo   *string    `gorm:"size:128" json:"deliveredTo"`
	DeliveredTime *time.Time `json:"deliveredTime"`
	Sold          bool       `gorm:"not null;default:false" json:"sold"`
	SoldAt        *string    `gorm:"size:128" json:"soldAt"`
	SoldTime      *time.Time `json:"soldTime"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// IsOpen reports whether the purchase can still be matched by a disposition.
func (p Purchase) IsOpen() bool {
	return !p.Delivered && !p.Sold
}
