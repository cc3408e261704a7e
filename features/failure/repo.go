package failure

import (
	"context"
	"database/sql"
)

type Repository interface {
	Save(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, rec *Record) error {
	query := `INSERT INTO failed_notifications (item_id, codename, language, content_type, action, error, status_code, correlation_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		rec.ItemID, rec.Codename, rec.Language, rec.ContentType, rec.Action, rec.Error, rec.StatusCode, rec.CorrelationID,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, item_id, codename, language, content_type, action, error, status_code, correlation_id, created_at FROM failed_notifications ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.Codename, &rec.Language, &rec.ContentType, &rec.Action, &rec.Error, &rec.StatusCode, &rec.CorrelationID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM failed_notifications`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
