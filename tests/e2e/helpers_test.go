package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// Cookieセッションなのでjar必須
type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}

	return &TestClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}
}

type ErrorResponse struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	User UserDTO `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProductDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	UnitPrice       int64  `json:"unitPrice"`
	ImageURL        string `json:"imageUrl"`
	DiscountPercent int64  `json:"discountPercent"`
}

type ProductListResponse struct {
	Items       []ProductDTO `json:"items"`
	TotalCount  int64        `json:"totalCount"`
	TotalPages  int64        `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Limit       int          `json:"limit"`
}

type CartLine struct {
	ProductRef int64  `json:"productRef"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unitPrice"`
	ImageURL   string `json:"imageUrl"`
	Quantity   int64  `json:"quantity"`
}

type CartResponse struct {
	Items         []CartLine `json:"items"`
	TotalQuantity int64      `json:"totalQuantity"`
}

func (c *TestClient) doJSON(
	ctx context.Context,
	t *testing.T,
	method string,
	path string,
	bodyBytes []byte,
) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if bodyBytes != nil {
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("http.NewRequest failed: %v", err)
	}

	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		t.Fatalf("HTTP.Do failed: %v", err)
	}

	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	return resp, data
}

// 管理商品はmultipart/form-dataで送る（画像項目付きのため）。
// 同名キーの繰り返し（indicators等）は値をカンマ区切りで渡す。
func (c *TestClient) doForm(
	ctx context.Context,
	t *testing.T,
	method string,
	path string,
	fields map[string]string,
) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) failed: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart close failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		t.Fatalf("http.NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		t.Fatalf("HTTP.Do failed: %v", err)
	}

	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	return resp, data
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, want, string(body))
	}
}

func mustDecodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var v ErrorResponse
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal(ErrorResponse) failed: %v body=%s", err, string(body))
	}
	return v
}

func mustDecodeAuth(t *testing.T, body []byte) AuthResponse {
	t.Helper()
	var v AuthResponse
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal(AuthResponse) failed: %v body=%s", err, string(body))
	}
	return v
}

func mustDecodeCart(t *testing.T, body []byte) CartResponse {
	t.Helper()
	var v CartResponse
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal(CartResponse) failed: %v body=%s", err, string(body))
	}
	return v
}

func mustDecodeProductList(t *testing.T, body []byte) ProductListResponse {
	t.Helper()
	var v ProductListResponse
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal(ProductListResponse) failed: %v body=%s", err, string(body))
	}
	return v
}

func mustDecodeProduct(t *testing.T, body []byte) ProductDTO {
	t.Helper()
	var v ProductDTO
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal(ProductDTO) failed: %v body=%s", err, string(body))
	}
	return v
}

func toStr(v int64) string {
	return strconv.FormatInt(v, 10)
}

func uniqueSuffix() string {
	return time.Now().Format("20060102-150405.000000000")
}

// 新規ユーザーを登録してログイン状態のclientを返す
func registerFreshUser(t *testing.T, c *TestClient, ctx context.Context) UserDTO {
	t.Helper()

	email := fmt.Sprintf("e2e-user-%s@example.com", uniqueSuffix())
	req := RegisterRequest{Name: "E2E User", Email: email, Password: "e2e-pass-0123"}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal(RegisterRequest) failed: %v", err)
	}

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/register", b)
	requireStatus(t, resp, http.StatusOK, body)

	auth := mustDecodeAuth(t, body)
	if auth.User.ID <= 0 {
		t.Fatalf("registered user id should be > 0: body=%s", string(body))
	}
	return auth.User
}

// シード済み管理者でログイン（Cookieがjarに入る）
func adminLogin(t *testing.T, c *TestClient, ctx context.Context) UserDTO {
	t.Helper()

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "password123"
	}

	req := LoginRequest{Email: email, Password: password}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal(LoginRequest) failed: %v", err)
	}

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/login", b)
	requireStatus(t, resp, http.StatusOK, body)

	auth := mustDecodeAuth(t, body)
	if auth.User.Role != "ADMIN" {
		t.Fatalf("seeded account is not ADMIN: body=%s", string(body))
	}
	return auth.User
}

// 管理APIで商品を1つ作って返す
func createProduct(t *testing.T, admin *TestClient, ctx context.Context, name string, unitPrice int64) ProductDTO {
	t.Helper()

	resp, body := admin.doForm(ctx, t, http.MethodPost, "/api/admin/products", map[string]string{
		"name":            name,
		"description":     "e2e product",
		"unitPrice":       toStr(unitPrice),
		"discountPercent": "0",
		"unit":            "box",
	})
	requireStatus(t, resp, http.StatusCreated, body)

	p := mustDecodeProduct(t, body)
	if p.ID <= 0 {
		t.Fatalf("created product id should be > 0: body=%s", string(body))
	}
	return p
}
