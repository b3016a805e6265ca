package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"songforge/internal/analytics"
	analyticsapi "songforge/internal/analytics/api"
	"songforge/internal/auth"
	"songforge/internal/config"
	"songforge/internal/database/migrations"
	"songforge/internal/delivery"
	"songforge/internal/feed"
	"songforge/internal/kafka"
	"songforge/internal/logger"
	"songforge/internal/mailer"
	"songforge/internal/orders"
	ordersapi "songforge/internal/orders/api"
	ordersdb "songforge/internal/orders/db"
	"songforge/internal/products"
	productsapi "songforge/internal/products/api"
	productsdb "songforge/internal/products/db"
	storageclient "songforge/internal/storage"
	"songforge/internal/users"
	usersapi "songforge/internal/users/api"
	usersdb "songforge/internal/users/db"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()
	ctx := context.Background()

	// --- PostgreSQL ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect to Postgres: "+err.Error())
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	// --- Migrations ---
	migrateOpts := migrations.DefaultOptions()
	migrateOpts.SeedData = config.GetEnv("MIGRATE_SEED", "false") == "true"
	runner := migrations.NewRunner(bunDB, migrateOpts, log)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", "Migrations failed: "+err.Error())
	}
	defer runner.Close()

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", "Failed to connect to Redis: "+err.Error())
	}
	visits := analytics.NewVisitCounter(redisClient)

	// --- Kafka and the push feed ---
	emitter := feed.NewEmitter()
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()

	var publisher orders.EventPublisher
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.OrderCreated, cfg.Kafka.Topics.OrderUpdated}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Fatal("KAFKA", "Failed to ensure topics: "+err.Error())
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderCreated, cfg.Kafka.Topics.OrderUpdated, log)
		defer producer.Close()
		publisher = producer

		bridge := feed.NewBridge(emitter, cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderCreated, cfg.Kafka.Topics.OrderUpdated, cfg.Kafka.GroupID, log)
		bridge.Start(feedCtx)
		defer bridge.Close()
	} else {
		log.Warn("KAFKA", "Kafka disabled, synchronizer clients rely on polling")
		publisher = kafka.Discard{Logger: log}
	}

	// --- Storage and mail ---
	var uploader storageclient.Uploader
	if cfg.Storage.URL != "" {
		uploader = storageclient.NewFallback(storageclient.NewClient(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.Storage.Bucket), log)
	} else {
		log.Warn("STORAGE", "No storage URL configured, using in-memory uploads")
		uploader = storageclient.NewLocal()
	}

	var mail mailer.Mailer
	if cfg.Email.Simulate {
		log.Warn("MAIL", "Email simulation enabled, no mail leaves this process")
		mail = mailer.NewSimulator(log)
	} else {
		port, _ := strconv.Atoi(cfg.Email.SMTPPort)
		mail = mailer.NewSMTP(cfg.Email.SMTPHost, port, cfg.Email.From, cfg.Email.SMTPUsername, cfg.Email.SMTPPassword, log)
	}

	// --- Services ---
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	orderService := orders.NewOrderService(&ordersdb.DB{Bun: bunDB}, publisher, nil, log)
	userService := users.NewUserService(&usersdb.DB{Bun: bunDB}, orderService, issuer, log)

	// The delivery chain needs user lookups, so it is wired after the
	// user service and attached to the order service here.
	orderService.Deliverer = delivery.NewService(userService, uploader, mail, log)

	productService := products.NewProductService(&productsdb.DB{Bun: bunDB}, log)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB), visits)

	// --- Handlers ---
	orderHandler := &ordersapi.Handler{OrderService: orderService}
	userHandler := &usersapi.Handler{UserService: userService}
	productHandler := &productsapi.Handler{ProductService: productService}
	analyticsHandler := &analyticsapi.Handler{Service: analyticsService, Visits: visits, Logger: log}
	sseHandler := feed.NewSSEHandler(log, emitter)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(requestLogger(log))

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)
		r.Post("/visits", analyticsHandler.RecordVisit)
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{productId}", productHandler.GetProduct)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(issuer.Middleware)

			r.Get("/users/me", userHandler.Me)
			r.Post("/orders", orderHandler.CreateOrder)
			r.Get("/orders/mine", orderHandler.MyOrders)
			r.Get("/orders/{orderId}", orderHandler.GetOrder)
			r.Get("/orders/events", sseHandler.HandleOrderEvents)
		})

		// Admin panel
		r.Group(func(r chi.Router) {
			r.Use(issuer.Middleware, auth.RequireAdmin)

			r.Get("/admin/orders", orderHandler.ListOrders)
			r.Patch("/admin/orders/{orderId}", orderHandler.PatchOrder)
			r.Get("/admin/users", userHandler.ListUsers)
			r.Patch("/admin/users/{userId}/admin", userHandler.SetAdmin)
			r.Delete("/admin/users/{userId}", userHandler.DeleteUser)
			r.Post("/admin/products", productHandler.CreateProduct)
			r.Put("/admin/products/{productId}", productHandler.UpdateProduct)
			r.Delete("/admin/products/{productId}", productHandler.DeleteProduct)
			r.Get("/admin/analytics/dashboard", analyticsHandler.Dashboard)
		})
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "songforge running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "HTTP server error: "+err.Error())
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received, cleaning up")

	stopFeed()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SERVER", "Server exited gracefully")
}

// requestLogger records every request through the API log category. SSE
// streams log once, when the stream ends.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).String())
		})
	}
}
