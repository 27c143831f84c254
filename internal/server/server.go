package server

import (
	"market/internal/config"
	"market/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoを組み立てて返す。
// ログ・パニック回復はここで一括して持つ（ハンドラ個別には持たせない）。
func New(
	cfg config.Config,
	productH *handler.ProductHandler,
	cartH *handler.CartHandler,
	purchaseH *handler.PurchaseHandler,
	userH *handler.UserHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FEURL},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "X-Idempotency-Key"},
		}))
	}

	productH.RegisterRoutes(e, cfg)
	cartH.RegisterRoutes(e, cfg)
	purchaseH.RegisterRoutes(e, cfg)
	userH.RegisterRoutes(e, cfg)

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
