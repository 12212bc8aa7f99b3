package usecase

import (
	"context"
	"net/http"

	"pharmacy/internal/domain/model"
	repo "pharmacy/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 不変条件：ユーザーにつきカート1つ、カート内で商品につき明細1行、数量は常に1以上。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// CartLineResponse は1明細。表示フィールドは追加時点のsnapshotを返す。
type CartLineResponse struct {
	ProductRef int64  `json:"productRef"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unitPrice"`
	ImageURL   string `json:"imageUrl"`
	Quantity   int64  `json:"quantity"`
}

type CartViewResponse struct {
	Items         []CartLineResponse `json:"items"`
	TotalQuantity int64              `json:"totalQuantity"`
}

type AddCartInput struct {
	ProductRef int64
	Quantity   int64
}

type UpdateQuantityInput struct {
	ProductRef int64
	Quantity   int64
}

// GetCart はカート取得（無ければ空カートを作って永続化してから返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartViewResponse, error) {
	if userID <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusUnauthorized, "login required")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// productRefは必ずカタログに対して実在チェックする。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartViewResponse, error) {
	if userID <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusUnauthorized, "login required")
	}
	if in.ProductRef <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusBadRequest, "productRef is required")
	}
	if in.Quantity < 1 {
		return CartViewResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// カート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品の実在チェック。クライアントが送るsnapshotは信用しない
	p, err := u.productRepo.FindByID(ctx, in.ProductRef)
	if err == repo.ErrNotFound {
		return CartViewResponse{}, NewHTTPError(http.StatusBadRequest, "product does not exist")
	}
	if err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// Upsert（同一商品は加算）
	// snapshotは「追加時点の表示情報」。以後の商品編集では書き換えない
	snapshot := model.ProductSnapshot{
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		ImageURL:  p.ImageURL,
	}
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductRef, in.Quantity, snapshot); err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// RemoveFromCart は明細削除。カート自体が無ければ404、
// 明細が無いだけなら黙って成功する（冪等）。
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, productRef int64) (CartViewResponse, error) {
	if userID <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusUnauthorized, "login required")
	}
	if productRef <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusBadRequest, "productRef is required")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return CartViewResponse{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.DeleteByProduct(ctx, cart.ID, productRef); err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// UpdateQuantity は数量の直接指定。
// 0は削除扱い（remove-on-zeroで統一）、負数は不正。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, in UpdateQuantityInput) (CartViewResponse, error) {
	if userID <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusUnauthorized, "login required")
	}
	if in.ProductRef <= 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusBadRequest, "productRef is required")
	}
	if in.Quantity < 0 {
		return CartViewResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return CartViewResponse{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.Quantity == 0 {
		if err := u.cartItemRepo.DeleteByProduct(ctx, cart.ID, in.ProductRef); err != nil {
			return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.buildCartView(ctx, cart.ID)
	}

	if err := u.cartItemRepo.SetQuantityByProduct(ctx, cart.ID, in.ProductRef, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartViewResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
		}
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// cartIDの明細をまとめてCartViewResponseを作る。
func (u *CartUsecase) buildCartView(ctx context.Context, cartID int64) (CartViewResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartViewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartLineResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		respItems = append(respItems, CartLineResponse{
			ProductRef: it.ProductID,
			Name:       it.Snapshot.Name,
			UnitPrice:  it.Snapshot.UnitPrice,
			ImageURL:   it.Snapshot.ImageURL,
			Quantity:   it.Quantity,
		})

		total += it.Quantity
	}

	return CartViewResponse{Items: respItems, TotalQuantity: total}, nil
}
