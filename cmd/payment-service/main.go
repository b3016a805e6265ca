package main

import (
	"database/sql"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"songforge/internal/config"
	"songforge/internal/delivery"
	"songforge/internal/kafka"
	"songforge/internal/logger"
	"songforge/internal/mailer"
	"songforge/internal/orders"
	ordersdb "songforge/internal/orders/db"
	"songforge/internal/payments/handler"
	"songforge/internal/payments/services"
	"songforge/internal/payments/storage"
	storageclient "songforge/internal/storage"
	"songforge/internal/users"
	usersdb "songforge/internal/users/db"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()

	// --- Order database (bun over pgdriver) ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect to Postgres: "+err.Error())
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	// --- Payment store (lib/pq) ---
	paymentStore, err := storage.NewPostgreSQLStore(cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize payment store: "+err.Error())
	}
	defer paymentStore.Close()

	// --- Delivery chain: storage, mail, QR ---
	var uploader storageclient.Uploader
	if cfg.Storage.URL != "" {
		uploader = storageclient.NewFallback(storageclient.NewClient(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.Storage.Bucket), log)
	} else {
		log.Warn("STORAGE", "No storage URL configured, using in-memory uploads")
		uploader = storageclient.NewLocal()
	}

	var mail mailer.Mailer
	if cfg.Email.Simulate {
		mail = mailer.NewSimulator(log)
	} else {
		port, _ := strconv.Atoi(cfg.Email.SMTPPort)
		mail = mailer.NewSMTP(cfg.Email.SMTPHost, port, cfg.Email.From, cfg.Email.SMTPUsername, cfg.Email.SMTPPassword, log)
	}

	// Only user lookups are exercised here; the order counter and token
	// issuer belong to the main application.
	userService := users.NewUserService(&usersdb.DB{Bun: bunDB}, nil, nil, log)
	deliverer := delivery.NewService(userService, uploader, mail, log)

	// --- Order service ---
	var publisher orders.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderCreated, cfg.Kafka.Topics.OrderUpdated, log)
		defer producer.Close()
		publisher = producer
	} else {
		publisher = kafka.Discard{Logger: log}
	}
	orderService := orders.NewOrderService(&ordersdb.DB{Bun: bunDB}, publisher, deliverer, log)

	// --- Stripe ---
	stripeService, err := services.NewStripeService(cfg.Stripe.SecretKey, log)
	if err != nil {
		log.Fatal("STRIPE", "Failed to initialize Stripe: "+err.Error())
	}

	stripeHandler := handler.NewStripeHandler(stripeService, paymentStore, orderService, log)

	// --- Router ---
	r := gin.Default()
	r.GET("/health", stripeHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/payments/process", stripeHandler.ProcessPayment)
		v1.GET("/payments/order/:orderId", stripeHandler.GetPaymentByOrder)
	}

	port := config.GetEnv("PAYMENT_PORT", ":8081")
	log.Info("SERVER", "Payment service running on "+port)
	if err := r.Run(port); err != nil {
		log.Fatal("SERVER", "HTTP server error: "+err.Error())
	}
}
