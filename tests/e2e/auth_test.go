package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func Test_Auth_Register_Me_Logout(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)

	user := registerFreshUser(t, c, ctx)

	//登録直後はそのままログイン状態
	resp, body := c.doJSON(ctx, t, http.MethodGet, "/api/auth/me", nil)
	requireStatus(t, resp, http.StatusOK, body)

	me := mustDecodeAuth(t, body)
	if me.User.ID != user.ID {
		t.Fatalf("me should return the registered user: body=%s", string(body))
	}
	if me.User.Role != "USER" {
		t.Fatalf("new user role should be USER: body=%s", string(body))
	}

	//ログアウト
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/api/auth/logout", nil)
	requireStatus(t, resp, http.StatusOK, body)

	//ログアウト後は401
	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/auth/me", nil)
	requireStatus(t, resp, http.StatusUnauthorized, body)
}

func Test_Auth_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)

	user := registerFreshUser(t, c, ctx)

	//同じメールで再登録 => 409
	req := RegisterRequest{Name: "Dup", Email: user.Email, Password: "e2e-pass-0123"}
	b, _ := json.Marshal(req)
	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/register", b)
	requireStatus(t, resp, http.StatusConflict, body)
}

func Test_Auth_LoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)

	user := registerFreshUser(t, c, ctx)

	//別clientで間違ったパスワード => 401
	c2 := NewTestClient(t)
	req := LoginRequest{Email: user.Email, Password: "totally-wrong"}
	b, _ := json.Marshal(req)
	resp, body := c2.doJSON(ctx, t, http.MethodPost, "/api/auth/login", b)
	requireStatus(t, resp, http.StatusUnauthorized, body)

	e := mustDecodeError(t, body)
	if e.Message == "" {
		t.Fatalf("error message should not be empty: body=%s", string(body))
	}
}

func Test_Auth_WeakPasswordRejected(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)

	email := fmt.Sprintf("e2e-weak-%s@example.com", uniqueSuffix())

	cases := []string{"short", "password1", "12345678"}
	for _, password := range cases {
		req := RegisterRequest{Name: "Weak", Email: email, Password: password}
		b, _ := json.Marshal(req)
		resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/register", b)
		requireStatus(t, resp, http.StatusBadRequest, body)
	}
}
