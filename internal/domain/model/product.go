package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Product struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string `gorm:"type:varchar(255);not null" json:"name"`
	Description     string `gorm:"type:text" json:"description"`
	UnitPrice       int64  `gorm:"column:unit_price;not null" json:"unitPrice"`
	ImageURL        string `gorm:"column:image_url;type:varchar(500)" json:"imageUrl"`
	DiscountPercent int64  `gorm:"not null;default:0" json:"discountPercent"`
	Unit            string `gorm:"type:varchar(50)" json:"unit"`

	//商品詳細ページ用
	Usage        string         `gorm:"type:text" json:"usage"`
	DoctorAdvice string         `gorm:"type:text" json:"doctorAdvice"`
	Indicators   pq.StringArray `gorm:"type:text[]" json:"indicators"`
	Ingredients  pq.StringArray `gorm:"type:text[]" json:"ingredients"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
