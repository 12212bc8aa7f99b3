package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pharmacy/internal/domain/model"
	repo "pharmacy/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	auditRepo   repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		auditRepo:   auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page   int
	Limit  int
	Search string
}

type ProductListOutput struct {
	Items      []model.Product `json:"items"`
	TotalCount int64           `json:"totalCount"`
	TotalPages int64           `json:"totalPages"`
	Page       int             `json:"currentPage"`
	Limit      int             `json:"limit"`
}

type ProductDetailOutput struct {
	Product  model.Product          `json:"product"`
	Comments []model.ProductComment `json:"comments"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Search) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "search too long")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:   in.Page,
		Limit:  in.Limit,
		Search: strings.TrimSpace(in.Search),
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	totalPages := total / int64(in.Limit)
	if total%int64(in.Limit) != 0 {
		totalPages++
	}

	return ProductListOutput{
		Items:      items,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       in.Page,
		Limit:      in.Limit,
	}, nil
}

// 商品詳細（コメント付き）
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	if productID <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	comments, err := u.productRepo.ListComments(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductDetailOutput{Product: p, Comments: comments}, nil
}

type AddCommentInput struct {
	ProductID int64
	Name      string
	Phone     string
	Text      string
}

// 商品コメント追加（ログイン不要）
func (u *ProductUsecase) AddComment(ctx context.Context, in AddCommentInput) (model.ProductComment, error) {
	if in.ProductID <= 0 {
		return model.ProductComment{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Text) == "" {
		return model.ProductComment{}, NewHTTPError(http.StatusBadRequest, "name and text are required")
	}

	//商品が消えていたらコメントも付けられない
	if _, err := u.productRepo.FindByID(ctx, in.ProductID); err != nil {
		if err == repo.ErrNotFound {
			return model.ProductComment{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.ProductComment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	c, err := u.productRepo.CreateComment(ctx, model.ProductComment{
		ProductID: in.ProductID,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Text:      strings.TrimSpace(in.Text),
	})
	if err != nil {
		return model.ProductComment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// =====================
// 管理者側
// =====================

type UpsertProductInput struct {
	Name            string
	Description     string
	UnitPrice       int64
	DiscountPercent int64
	Unit            string
	Usage           string
	DoctorAdvice    string
	Indicators      []string
	Ingredients     []string

	// 画像は別でアップロード済みのパスを受け取る。空なら変更しない
	ImageURL string
}

func (in UpsertProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if in.UnitPrice < 0 {
		return NewHTTPError(http.StatusBadRequest, "unitPrice must be >= 0")
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return NewHTTPError(http.StatusBadRequest, "discountPercent must be 0-100")
	}
	return nil
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, adminUserID int64, in UpsertProductInput) (model.Product, error) {
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		UnitPrice:       in.UnitPrice,
		ImageURL:        in.ImageURL,
		DiscountPercent: in.DiscountPercent,
		Unit:            in.Unit,
		Usage:           in.Usage,
		DoctorAdvice:    in.DoctorAdvice,
		Indicators:      in.Indicators,
		Ingredients:     in.Ingredients,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, adminUserID, model.AuditActionCreateProduct, created.ID, created.Name)
	return created, nil
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, adminUserID int64, productID int64, in UpsertProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	current, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	current.Name = strings.TrimSpace(in.Name)
	current.Description = in.Description
	current.UnitPrice = in.UnitPrice
	current.DiscountPercent = in.DiscountPercent
	current.Unit = in.Unit
	current.Usage = in.Usage
	current.DoctorAdvice = in.DoctorAdvice
	current.Indicators = in.Indicators
	current.Ingredients = in.Ingredients

	//画像は新しくアップロードされた時だけ差し替える
	if in.ImageURL != "" {
		current.ImageURL = in.ImageURL
	}

	if err := u.productRepo.Update(ctx, current); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, adminUserID, model.AuditActionUpdateProduct, current.ID, current.Name)
	return current, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := u.productRepo.SoftDelete(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, adminUserID, model.AuditActionDeleteProduct, productID, "")
	return nil
}

type ListAuditLogsInput struct {
	ActorUserID *int64
	Action      string
	ProductID   *int64
	Limit       int
	Offset      int
}

func (u *ProductUsecase) ListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ProductID:   in.ProductID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		filter.Action = &a
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

// 監査ログの書き込み失敗で本処理は落とさない
func (u *ProductUsecase) writeAudit(ctx context.Context, adminUserID int64, action model.AuditAction, productID int64, detail string) {
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID: adminUserID,
		Action:      action,
		ProductID:   productID,
		Detail:      detail,
		CreatedAt:   time.Now(),
	})
}
