package model

import "time"

// 追加時点の商品表示情報。以後の商品編集では更新しない。
type ProductSnapshot struct {
	Name      string `gorm:"column:name_snapshot;not null" json:"name"`
	UnitPrice int64  `gorm:"column:unit_price_snapshot;not null" json:"unitPrice"`
	ImageURL  string `gorm:"column:image_url_snapshot" json:"imageUrl"`
}

// カートの明細
// 同一カート内で同じ商品の明細は1行のみ（cart_id, product_idで一意）
type CartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64           `gorm:"not null;uniqueIndex:uq_cart_product" json:"-"`
	ProductID int64           `gorm:"not null;uniqueIndex:uq_cart_product" json:"productRef"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Snapshot  ProductSnapshot `gorm:"embedded" json:"snapshot"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
