package repository

import (
	"context"

	"pharmacy/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品はプラス。新規行はsnapshotを保存する
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, snapshot model.ProductSnapshot) error
	// 明細が無ければErrNotFound
	SetQuantityByProduct(ctx context.Context, cartID int64, productID int64, qty int64) error
	// 明細が無くても成功（冪等）
	DeleteByProduct(ctx context.Context, cartID int64, productID int64) error
}
