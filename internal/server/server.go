package server

import (
	"net/http"

	"pharmacy/internal/config"
	"pharmacy/internal/handler"
	"pharmacy/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はecho本体を組み立てる。ルート登録は各handlerに任せる。
func New(
	cfg config.Config,
	authH *handler.AuthHandler,
	productH *handler.ProductHandler,
	cartH *handler.CartHandler,
	adminProductH *handler.AdminProductHandler,
	adminUserH *handler.AdminUserHandler,
	provinceH *handler.ProvinceHandler,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
	}))

	//商品画像
	e.Static("/uploads", cfg.UploadDir)

	authH.RegisterRoutes(e)
	productH.RegisterRoutes(e)
	provinceH.RegisterRoutes(e)
	cartH.RegisterRoutes(e, sessionRepo, userRepo)
	adminProductH.RegisterRoutes(e, sessionRepo, userRepo)
	adminUserH.RegisterRoutes(e, sessionRepo, userRepo)

	return e
}

// Start はサーバーを起動する。
func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
