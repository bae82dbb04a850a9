package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/jmoiron/sqlx"
)

const DefaultAuditTable = "order_line_item_logs"

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type PostgresAuditRepo struct {
	db    *sqlx.DB
	table string
}

// NewPostgresAuditRepo binds the store to table and creates it when missing.
func NewPostgresAuditRepo(ctx context.Context, db *sqlx.DB, table string) (*PostgresAuditRepo, error) {
	if table == "" {
		table = DefaultAuditTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	repo := &PostgresAuditRepo{db: db, table: table}
	if err := repo.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return repo, nil
}

func (r *PostgresAuditRepo) Append(ctx context.Context, entry model.NewAuditLogEntry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.db.QueryRowxContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (order_id, product_sku, quantity, status, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.table), entry.OrderID, entry.ProductSKU, entry.Quantity, string(entry.Status), entry.Message).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return id, nil
}

func (r *PostgresAuditRepo) Recent(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	limit = model.NormalizeLimit(limit)

	query := fmt.Sprintf(`SELECT id, order_id, product_sku, quantity, status, message, created_at FROM %s ORDER BY created_at DESC, id DESC LIMIT $1`, r.table)
	records := make([]model.AuditLogEntry, 0, limit)
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("select recent audit entries: %w", err)
	}
	return records, nil
}

// Drop removes the table and everything in it.
func (r *PostgresAuditRepo) Drop(ctx context.Context) error {
	return DropAuditTable(ctx, r.db, r.table)
}

// DropAuditTable drops table without creating it first.
func DropAuditTable(ctx context.Context, db *sqlx.DB, table string) error {
	if table == "" {
		table = DefaultAuditTable
	}
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid audit table name %q", table)
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table))
	return err
}

func (r *PostgresAuditRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_sku VARCHAR(100) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			status VARCHAR(20) NOT NULL CHECK (status IN ('success', 'error')),
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, r.table))
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_order_id ON %s(order_id)`, r.table, r.table)); err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s(created_at DESC, id DESC)`, r.table, r.table))
	return err
}
