package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"pharmacy/internal/repository"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "session"

	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // string
)

type errorResponse struct {
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Message: msg}
}

// Cookieのセッショントークンをユーザーに解決するミドルウェア。
// トークンは不透明文字列で、DBにはsha256ハッシュのみ保存されている。
func SessionGate(sessionRepo repository.SessionRepository, userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Cookieを取得
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("login required"))
			}

			//DB照合はハッシュで行う
			sum := sha256.Sum256([]byte(cookie.Value))
			tokenHash := hex.EncodeToString(sum[:])

			session, err := sessionRepo.FindByTokenHash(c.Request().Context(), tokenHash)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					return c.JSON(http.StatusUnauthorized, errorJSON("login required"))
				}
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			//期限切れセッションは削除して401
			if time.Now().After(session.ExpiresAt) {
				_ = sessionRepo.DeleteByID(c.Request().Context(), session.ID)
				return c.JSON(http.StatusUnauthorized, errorJSON("session expired"))
			}

			//ユーザーを取得する。消されたアカウントのセッションは
			//無効化してから401を返す（黙って通さない）
			user, err := userRepo.FindByID(c.Request().Context(), session.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					_ = sessionRepo.DeleteByID(c.Request().Context(), session.ID)
					return c.JSON(http.StatusUnauthorized, errorJSON("login required"))
				}
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, user.ID)
			c.Set(CtxUserRoleKey, string(user.Role))

			return next(c)
		}
	}
}
