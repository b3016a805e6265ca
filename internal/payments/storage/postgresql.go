package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"songforge/internal/logger"
	"songforge/internal/models"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewPostgreSQLStore(dsn string, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", "Connecting payment store")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{db: db, log: log}
	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "Payment store ready")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "postgresql", "Creating payments table if not exists")

	paymentsQuery := `
    CREATE TABLE IF NOT EXISTS payments (
        id VARCHAR(36) PRIMARY KEY,
        order_id VARCHAR(36) NOT NULL,
        amount DECIMAL(10,2) NOT NULL,
        currency VARCHAR(8) NOT NULL,
        status VARCHAR(50) NOT NULL,
        payment_intent_id VARCHAR(255),
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `

	if _, err := s.db.Exec(paymentsQuery); err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id);",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);",
	}

	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (s *PostgreSQLStore) SavePayment(payment *models.Payment) error {
	query := `
    INSERT INTO payments (
        id, order_id, amount, currency, status, payment_intent_id, created_at
    ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err := s.db.Exec(query,
		payment.ID, payment.OrderID, payment.Amount, payment.Currency,
		payment.Status, payment.PaymentIntentID, payment.CreatedAt,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", payment.ID, err.Error()))
		return fmt.Errorf("failed to save payment: %w", err)
	}

	s.log.LogDatabase("INSERT", "postgresql", fmt.Sprintf("Payment %s saved", payment.ID))
	return nil
}

func (s *PostgreSQLStore) GetPayment(id string) (*models.Payment, error) {
	query := `
    SELECT id, order_id, amount, currency, status, payment_intent_id, created_at
    FROM payments WHERE id = $1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, id).Scan(
		&payment.ID, &payment.OrderID, &payment.Amount, &payment.Currency,
		&payment.Status, &payment.PaymentIntentID, &payment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

func (s *PostgreSQLStore) UpdatePayment(payment *models.Payment) error {
	query := `
    UPDATE payments SET
        order_id = $1, amount = $2, currency = $3, status = $4, payment_intent_id = $5
    WHERE id = $6
    `

	_, err := s.db.Exec(query,
		payment.OrderID, payment.Amount, payment.Currency, payment.Status,
		payment.PaymentIntentID, payment.ID,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment %s: %s", payment.ID, err.Error()))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	s.log.LogDatabase("UPDATE", "postgresql", fmt.Sprintf("Payment %s updated", payment.ID))
	return nil
}

func (s *PostgreSQLStore) GetPaymentByOrderID(orderID string) (*models.Payment, error) {
	query := `
    SELECT id, order_id, amount, currency, status, payment_intent_id, created_at
    FROM payments WHERE order_id = $1
    ORDER BY created_at DESC LIMIT 1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, orderID).Scan(
		&payment.ID, &payment.OrderID, &payment.Amount, &payment.Currency,
		&payment.Status, &payment.PaymentIntentID, &payment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

func (s *PostgreSQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "postgresql", "Closing payment store")
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
