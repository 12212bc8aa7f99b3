package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// 住所入力用の行政区画データ。外部APIをそのまま中継する。
// （フロントからの直叩きだとCORSで落ちるためサーバー経由にしている）
const provincesAPIURL = "https://provinces.open-api.vn/api/?depth=3"

type ProvinceHandler struct {
	client *http.Client
}

func NewProvinceHandler() *ProvinceHandler {
	return &ProvinceHandler{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *ProvinceHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/provinces", h.list)
}

func (h *ProvinceHandler) list(c echo.Context) error {
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, provincesAPIURL, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}

	resp, err := h.client.Do(req)
	if err != nil {
		c.Logger().Error("provinces fetch failed: ", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Message: "failed to load province data"})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Message: "failed to load province data"})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Message: "failed to load province data"})
	}

	return c.JSONBlob(http.StatusOK, body)
}
