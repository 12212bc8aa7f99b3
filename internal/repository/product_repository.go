package repository

import (
	"context"
	"errors"

	"pharmacy/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page   int
	Limit  int
	Search string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	//商品コメント
	CreateComment(ctx context.Context, c model.ProductComment) (model.ProductComment, error)
	ListComments(ctx context.Context, productID int64) ([]model.ProductComment, error)
}
