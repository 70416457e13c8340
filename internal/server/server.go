package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/metrics"
	"marketplace/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type Handlers struct {
	Order  *handler.OrderHandler
	Cart   *handler.CartHandler
	Coupon *handler.CouponHandler
	Seller *handler.SellerHandler
	Admin  *handler.AdminOrderHandler
}

// ルート登録
func NewEcho(cfg config.Config, logger *log.Logger, app *App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger, app.Server))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.Envelope{Success: true, Message: "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(prometheus.Gatherer(app.Registry))))

	auth := middleware.AuthJWT(cfg.JWTSecret)
	app.Order.RegisterRoutes(e, auth)
	app.Cart.RegisterRoutes(e, auth)
	app.Coupon.RegisterRoutes(e, auth)
	app.Seller.RegisterRoutes(e, auth)
	app.Admin.RegisterRoutes(e, auth)

	return e
}

// SIGINT/SIGTERMまで待ってから止める
func Run(e *echo.Echo, addr string, logger log.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	killSignalChan := make(chan os.Signal, 1)
	signal.Notify(killSignalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(killSignalChan)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case sig := <-killSignalChan:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

// ":8080"形式にそろえる
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] != ':' {
		return ":" + port
	}
	return port
}
