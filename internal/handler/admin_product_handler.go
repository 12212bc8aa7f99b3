package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pharmacy/internal/config"
	"pharmacy/internal/middleware"
	"pharmacy/internal/repository"
	"pharmacy/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// 画像アップロードの上限（3MB）
const maxImageBytes = 3 * 1024 * 1024

// /api/admin/products のHTTP。
// 商品はmultipart/form-dataで受ける（画像ファイル付きのため）。
type AdminProductHandler struct {
	cfg config.Config
	uc  *usecase.ProductUsecase
}

func NewAdminProductHandler(cfg config.Config, uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{cfg: cfg, uc: uc}
}

// /admin配下は「ログイン必須 + ADMIN限定」
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, sessionRepo repository.SessionRepository, userRepo repository.UserRepository) {
	admin := e.Group(
		"/api/admin",
		middleware.SessionGate(sessionRepo, userRepo),
		middleware.AdminRoleGuard(),
	)

	admin.POST("/products", h.create)
	admin.PUT("/products/:id", h.update)
	admin.DELETE("/products/:id", h.delete)
	admin.GET("/audit-logs", h.listAuditLogs)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "login required"})
	}

	in, err := h.bindProductForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}

	out, uerr := h.uc.CreateProduct(c.Request().Context(), userID, in)
	if uerr != nil {
		return writeError(c, uerr)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "login required"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	in, ferr := h.bindProductForm(c)
	if ferr != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: ferr.Error()})
	}

	out, uerr := h.uc.UpdateProduct(c.Request().Context(), userID, id, in)
	if uerr != nil {
		return writeError(c, uerr)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "login required"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	if uerr := h.uc.DeleteProduct(c.Request().Context(), userID, id); uerr != nil {
		return writeError(c, uerr)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "deleted"})
}

func (h *AdminProductHandler) listAuditLogs(c echo.Context) error {
	in := usecase.ListAuditLogsInput{
		Action: c.QueryParam("action"),
	}

	if v := c.QueryParam("productId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid productId"})
		}
		in.ProductID = &id
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		in.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offset"})
		}
		in.Offset = o
	}

	logs, err := h.uc.ListAuditLogs(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"items": logs})
}

// multipart formから入力DTOを組み立てる。画像があれば保存してパスを入れる。
func (h *AdminProductHandler) bindProductForm(c echo.Context) (usecase.UpsertProductInput, error) {
	var in usecase.UpsertProductInput

	in.Name = c.FormValue("name")
	in.Description = c.FormValue("description")
	in.Unit = c.FormValue("unit")
	in.Usage = c.FormValue("usage")
	in.DoctorAdvice = c.FormValue("doctorAdvice")

	if v := c.FormValue("unitPrice"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, fmt.Errorf("invalid unitPrice")
		}
		in.UnitPrice = price
	}

	if v := c.FormValue("discountPercent"); v != "" {
		d, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, fmt.Errorf("invalid discountPercent")
		}
		in.DiscountPercent = d
	}

	//配列項目は同名フィールドの繰り返しで受ける
	if form, err := c.MultipartForm(); err == nil && form != nil {
		in.Indicators = form.Value["indicators"]
		in.Ingredients = form.Value["ingredients"]
	}

	//画像（省略可）
	file, err := c.FormFile("image")
	if err == nil && file != nil {
		path, serr := h.saveImage(file)
		if serr != nil {
			return in, serr
		}
		in.ImageURL = path
	}

	return in, nil
}

// 画像をUploadDirへ保存して公開パス（/uploads/...）を返す。
// ファイル名は衝突しないようuuidで付け直す。
func (h *AdminProductHandler) saveImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxImageBytes {
		return "", fmt.Errorf("image too large")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("only image files are allowed")
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.cfg.UploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/uploads/" + name, nil
}
