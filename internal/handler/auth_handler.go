package handler

import (
	"errors"
	"net/http"
	"time"

	"pharmacy/internal/config"
	"pharmacy/internal/middleware"
	"pharmacy/internal/repository"
	auth "pharmacy/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// /api/auth のHTTP
type AuthHandler struct {
	cfg         config.Config
	registerUC  *auth.RegisterUserUsecase
	loginUC     *auth.LoginUsecase
	logoutUC    *auth.LogoutUsecase
	forgotUC    *auth.ForgotPasswordUsecase
	resetUC     *auth.ResetPasswordUsecase
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sessionTTL  time.Duration
}

// DIコンストラクタ
func NewAuthHandler(
	cfg config.Config,
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	logoutUC *auth.LogoutUsecase,
	forgotUC *auth.ForgotPasswordUsecase,
	resetUC *auth.ResetPasswordUsecase,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		registerUC:  registerUC,
		loginUC:     loginUC,
		logoutUC:    logoutUC,
		forgotUC:    forgotUC,
		resetUC:     resetUC,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  time.Duration(cfg.SessionTTLHours) * time.Hour,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.POST("/forgot", h.forgot)
	g.POST("/reset-password", h.resetPassword)

	me := g.Group("/me")
	me.Use(middleware.SessionGate(h.sessionRepo, h.userRepo))
	me.GET("", h.me)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, side, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput),
			errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Message: "email already exists"})
		default:
			c.Logger().Error("register failed: ", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
	}

	h.setSessionCookie(c, side.PlainSessionToken)
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, side, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "email and password are required"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid email or password"})
		default:
			c.Logger().Error("login failed: ", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
	}

	h.setSessionCookie(c, side.PlainSessionToken)
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	//Cookieが無くてもログアウトは成功扱い
	plain := ""
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil {
		plain = cookie.Value
	}

	if err := h.logoutUC.Execute(c.Request().Context(), plain); err != nil {
		c.Logger().Error("logout failed: ", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}

	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *AuthHandler) forgot(c echo.Context) error {
	var req forgotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	err := h.forgotUC.Execute(c.Request().Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "email is required"})
		case errors.Is(err, auth.ErrEmailNotFound):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "email not found"})
		default:
			c.Logger().Error("forgot failed: ", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "otp sent"})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	err := h.resetUC.Execute(c.Request().Context(), auth.ResetPasswordInput{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidOrExpiredOTP):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		default:
			c.Logger().Error("reset password failed: ", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// 現在ログイン中のユーザーを返す
func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "login required"})
	}

	user, err := h.userRepo.FindByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// セッショントークンをCookieにセット。
func (h *AuthHandler) setSessionCookie(c echo.Context, plainToken string) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    plainToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.sessionTTL),
	}
	c.SetCookie(cookie)
}

// Cookieを失効させる
func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)
}
