package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProfileByUserID retrieves a tenant profile
func (s *Store) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, "SELECT * FROM profiles WHERE id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %s", userID)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateHappyHourWindow updates a tenant's happy hour configuration
func (s *Store) UpdateHappyHourWindow(ctx context.Context, userID string, start, end sql.NullString) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET happy_hour_start = $1, happy_hour_end = $2, updated_at = NOW() WHERE id = $3",
		start, end, userID)
	return err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetActiveProductsByUserID retrieves a tenant's sellable catalog
func (s *Store) GetActiveProductsByUserID(ctx context.Context, userID string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE user_id = $1 AND is_active = true ORDER BY name", userID)
	return products, err
}

// GetTableByID retrieves a table by ID
func (s *Store) GetTableByID(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	err := s.db.GetContext(ctx, &table, "SELECT * FROM tables WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// UpdateTableStatus updates a table's availability status
func (s *Store) UpdateTableStatus(ctx context.Context, tableID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tables SET status = $1 WHERE id = $2", status, tableID)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
