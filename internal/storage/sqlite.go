package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite serializes writers anyway, and an in-memory database exists
	// per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM snapshots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendPurchase(ctx context.Context, t domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (id, reference, amount, status, product_id, product_name, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = $4
	`, t.ID, t.Reference, t.Amount, t.Status.String(), t.ProductID, t.ProductName, t.Quantity, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append purchase: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Purchases(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, amount, status, product_id, product_name, quantity, created_at
		FROM purchases
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var status string
		err := rows.Scan(
			&t.ID,
			&t.Reference,
			&t.Amount,
			&status,
			&t.ProductID,
			&t.ProductName,
			&t.Quantity,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		t.Status = domain.TransactionStatus(status)
		purchases = append(purchases, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return purchases, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
