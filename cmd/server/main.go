package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Alexlic0001/EquipmentShop/internal/cart"
	"github.com/Alexlic0001/EquipmentShop/internal/cart/cache"
	"github.com/Alexlic0001/EquipmentShop/internal/cartstore"
	"github.com/Alexlic0001/EquipmentShop/internal/catalog"
	"github.com/Alexlic0001/EquipmentShop/internal/checkout"
	"github.com/Alexlic0001/EquipmentShop/internal/events"
	"github.com/Alexlic0001/EquipmentShop/internal/httpapi"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
	"github.com/Alexlic0001/EquipmentShop/internal/order"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI   string
	MongoDB    string
	RedisAddr  string
	SQLitePath string

	CatalogMigrationsPath string

	OrdersDB order.Credentials

	KafkaBrokers string

	CartRetention         time.Duration
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
	Currency              string
}

func loadConfig() *Config {
	retentionDays, err := strconv.Atoi(getEnv("CART_RETENTION_DAYS", "30"))
	if err != nil || retentionDays <= 0 {
		retentionDays = 30
	}
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		pgPort = 5432
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGO_DB", "equipment_shop"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		SQLitePath: getEnv("SQLITE_PATH", "catalog.db"),

		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "migrations/catalog"),

		OrdersDB: order.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              getEnv("POSTGRES_USER", "postgres"),
			Password:          getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:            getEnv("POSTGRES_DB", "orders"),
			MigrationsDirPath: getEnv("ORDERS_MIGRATIONS_PATH", "migrations/orders"),
		},

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),

		CartRetention:         time.Duration(retentionDays) * 24 * time.Hour,
		ShippingCost:          decimalEnv("SHIPPING_COST", "10"),
		FreeShippingThreshold: decimalEnv("FREE_SHIPPING_THRESHOLD", "200"),
		TaxRate:               decimalEnv("TAX_RATE", "0.2"),
		Currency:              getEnv("CURRENCY", "BYN"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func decimalEnv(key, defaultValue string) decimal.Decimal {
	raw := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("invalid decimal in %s=%q, using default %s", key, raw, defaultValue)
		d, _ = decimal.NewFromString(defaultValue)
	}
	return d
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// Cart storage
	mongoDB, err := cartstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	cartStore := cartstore.NewMongoStore(mongoDB, cfg.CartRetention)
	if err := cartStore.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create cart indexes: %v", err)
	}

	// Cart read cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	// Product catalog
	catalogRepo, err := catalog.NewRepository(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open catalog database: %v", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}

	// Inventory ledger, seeded from the catalog
	ledger := inventory.NewMemoryLedger()
	if err := seedStock(ctx, catalogRepo, ledger); err != nil {
		log.Fatalf("failed to seed stock: %v", err)
	}

	// Orders
	ordersRepo, err := order.NewPostgresRepository(&cfg.OrdersDB)
	if err != nil {
		log.Fatalf("failed to connect to orders database: %v", err)
	}
	defer ordersRepo.Close()
	if err := ordersRepo.RunMigrations(&cfg.OrdersDB); err != nil {
		log.Fatalf("failed to run orders migrations: %v", err)
	}

	// Order events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher = events.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ",")...)
		log.Printf("publishing order events to %s", cfg.KafkaBrokers)
	}
	defer publisher.Close()

	// Services
	cartService := cart.NewService(cartStore, catalogRepo, ledger, cartCache, cfg.CartRetention)
	orderFactory := order.NewFactory(ordersRepo, cfg.Currency)
	checkoutService := checkout.NewService(cartService, ledger, orderFactory, ordersRepo, publisher, checkout.Config{
		ShippingCost:          cfg.ShippingCost,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		TaxRate:               cfg.TaxRate,
		Currency:              cfg.Currency,
	})

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Carts:          cartService,
		Checkout:       checkoutService,
		Orders:         ordersRepo,
		Products:       catalogRepo,
		Ledger:         ledger,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("equipment shop starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// seedStock gives every catalog product an initial stock level unless the
// INITIAL_STOCK env override is set.
func seedStock(ctx context.Context, products catalog.Products, ledger inventory.Ledger) error {
	initial, err := strconv.Atoi(getEnv("INITIAL_STOCK", "100"))
	if err != nil || initial < 0 {
		initial = 100
	}

	all, err := products.GetAllProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if err := ledger.SetStock(p.ID, initial); err != nil {
			return err
		}
	}
	log.Printf("initialized stock for %d products", len(all))
	return nil
}
