package server

import (
	"io"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/infra/db"
	"marketplace/internal/infra/memory"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/metrics"
	"marketplace/internal/notify"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// ストアの組み立て結果
type Store struct {
	Tx      repo.TransactionManager
	Carts   repo.CartRepository
	Items   repo.CartItemRepository
	Catalog repo.CatalogReader
	closers []io.Closer
}

// STOREに応じてpostgres(gorm)かメモリを使う
func OpenStore(cfg config.Config, logger log.FieldLogger) (Store, error) {
	if cfg.Store == config.StoreMemory {
		mem := memory.NewStore()
		memory.SeedDemo(mem)
		logger.Warn("using in-memory store; data is lost on restart")
		auto := mem.Auto()
		return Store{Tx: mem, Carts: auto, Items: auto, Catalog: auto}, nil
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return Store{}, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return Store{}, err
	}
	carts := infraRepo.NewCartGormRepository(gormDB)
	return Store{
		Tx:      infraRepo.NewTxManagerGorm(gormDB),
		Carts:   carts,
		Items:   carts,
		Catalog: infraRepo.NewProductGormRepository(gormDB),
		closers: []io.Closer{sqlDB},
	}, nil
}

func (s Store) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// KAFKA_BROKERSがあればKafka、ログにも必ず出す
func NewNotifier(cfg config.Config, logger log.FieldLogger) (notify.Notifier, io.Closer) {
	logN := notify.NewLogNotifier(logger)
	if cfg.KafkaBrokers == "" {
		return logN, nil
	}
	k := notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger))
	return notify.Multi{logN, k}, k
}

type App struct {
	Handlers
	Registry *prometheus.Registry
	Server   *metrics.ServerMetrics
}

// usecaseとhandlerの組み立て
func NewApp(cfg config.Config, logger *log.Logger, store Store, notifier notify.Notifier) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := usecase.Deps{
		Notifier: notifier,
		Metrics:  metrics.NewOrderMetrics(reg),
		Logger:   logger,
	}

	shipping := usecase.FlatShippingPolicy{FeePerSeller: cfg.ShippingFlatFee, FreeOver: cfg.ShippingFreeOver}
	tax := usecase.RateTaxPolicy{RateBasisPoints: cfg.TaxRateBPS}

	checkoutUC := usecase.NewCheckoutUsecase(store.Tx, validator.NewCheckoutValidator(), shipping, tax, deps)
	orderUC := usecase.NewOrderUsecase(store.Tx)
	statusUC := usecase.NewOrderStatusUsecase(store.Tx, deps)
	adminUC := usecase.NewAdminOrderUsecase(store.Tx)
	inventoryUC := usecase.NewInventoryUsecase(store.Tx, deps)
	auditUC := usecase.NewAuditLogUsecase(store.Tx)
	couponUC := usecase.NewCouponUsecase(store.Tx, nil)
	cartUC := usecase.NewCartUsecase(store.Carts, store.Items, store.Catalog)

	return &App{
		Handlers: Handlers{
			Order:  handler.NewOrderHandler(checkoutUC, orderUC, statusUC),
			Cart:   handler.NewCartHandler(cartUC),
			Coupon: handler.NewCouponHandler(couponUC),
			Seller: handler.NewSellerHandler(adminUC, statusUC),
			Admin:  handler.NewAdminOrderHandler(adminUC, statusUC, inventoryUC, auditUC),
		},
		Registry: reg,
		Server:   metrics.NewServerMetrics(reg),
	}
}
