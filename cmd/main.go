package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/analysis"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/api"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/combo"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/config"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/consumer"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/ingest"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/repository"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/service"
	"github.com/pedrostorrios-lang/padaria-gestao/migrations"
)

func connectDB(cfg config.MySQLConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("✅ Connected to DB %s", cfg.Name)
				return db, nil
			}
		}
		log.Printf("❌ Retry %d: Failed to connect to DB %s (%s:%s): %v", i+1, cfg.Name, cfg.Host, cfg.Port, err)
		time.Sleep(3 * time.Second)
	}
	return nil, err
}

func main() {
	configPath := flag.String("config", "./config/padaria.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	db, err := connectDB(cfg.MySQL)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrate(3, db); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	classifyOpts := analysis.Options{TierBy: analysis.TierMode(cfg.Analysis.TierBy)}
	comboOpts := combo.Options{
		Thresholds: &combo.Thresholds{
			StarMargin:   cfg.Combos.StarMargin,
			PuzzleMargin: cfg.Combos.PuzzleMargin,
		},
		Strategies: cfg.Combos.Strategies,
	}
	defaultDNA := entity.NewDeductionProfile(
		cfg.Deduction.FixedCosts, cfg.Deduction.ExpectedRevenue,
		cfg.Deduction.TaxRate, cfg.Deduction.CardFeeRate, cfg.Deduction.RoyaltyRate,
	)

	userRepo := repository.NewUserRepository(db)
	deductionRepo := repository.NewDeductionRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)

	datasetService := service.NewDatasetService(datasetRepo, rdb, classifyOpts, comboOpts)
	deductionService := service.NewDeductionService(deductionRepo, defaultDNA)
	authService := service.NewAuthService(userRepo, rdb, cfg.Auth.JWTSecret, service.RolePolicy(cfg.Auth.RolePolicy))

	salesWriter := config.NewKafkaWriter(cfg.Kafka, cfg.Kafka.SalesTopic)
	saleProducer := service.NewSaleProducer(salesWriter)

	handler := api.NewHandler(datasetService, deductionService, authService, saleProducer, ingest.Options{})

	// Stream sale events into the dataset.
	salesReader := config.NewKafkaReader(cfg.Kafka, cfg.Kafka.SalesTopic, cfg.Kafka.GroupID)
	salesConsumer := consumer.NewConsumer(datasetService, salesReader)
	go salesConsumer.Start(context.Background())

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	e.POST("/login", handler.Login)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "padaria-gestao",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Everything beyond login and health requires a session token that is
	// still cached, so logout revokes it immediately.
	g := e.Group("", echojwt.JWT([]byte(cfg.Auth.JWTSecret)), handler.SessionGuard)

	g.POST("/logout", handler.Logout)
	g.POST("/users", handler.CreateUser)
	g.POST("/sales", handler.RecordSale)

	g.POST("/datasets/upload", handler.UploadDataset)
	g.POST("/datasets/commit", handler.CommitDataset)
	g.GET("/datasets", handler.GetDataset)
	g.PUT("/datasets/rows", handler.UpsertRow)
	g.DELETE("/datasets/rows/:name", handler.DeleteRow)

	g.GET("/analysis/classified", handler.GetClassified)
	g.GET("/analysis/summary", handler.GetSummary)
	g.POST("/analysis/pnl", handler.GetPnL)

	g.POST("/pricing/counter", handler.PriceCounter)
	g.POST("/pricing/delivery", handler.PriceDelivery)

	g.POST("/combos/suggest", handler.SuggestCombos)

	g.GET("/settings/deduction-profile", handler.GetDeductionProfile)
	g.PUT("/settings/deduction-profile", handler.UpdateDeductionProfile)

	e.Logger.Fatal(e.Start(":" + cfg.HTTP.Port))
}
