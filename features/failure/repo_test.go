package failure_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recsync/features/failure"
)

var recordColumns = []string{"id", "item_id", "codename", "language", "content_type", "action", "error", "status_code", "correlation_id", "created_at"}

func TestPostgresRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := failure.NewPostgresRepo(db)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := &failure.Record{
		ItemID:        "abc",
		Codename:      "green_tea",
		Language:      "en",
		ContentType:   "product",
		Action:        "published",
		Error:         "import content: engine down",
		StatusCode:    520,
		CorrelationID: "cid",
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO failed_notifications (item_id, codename, language, content_type, action, error, status_code, correlation_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at")).
		WithArgs("abc", "green_tea", "en", "product", "published", "import content: engine down", 520, "cid").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("f-1", created))

	err = repo.Save(context.Background(), rec)
	assert.NoError(t, err)
	assert.Equal(t, "f-1", rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := failure.NewPostgresRepo(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(recordColumns).
			AddRow("f-2", "def", "black_tea", "de", "product", "unpublished", "delete content: boom", 520, "c2", now).
			AddRow("f-1", "abc", "green_tea", "en", "product", "published", "import content: boom", 520, "c1", now.Add(-time.Minute))

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, item_id, codename, language, content_type, action, error, status_code, correlation_id, created_at FROM failed_notifications ORDER BY created_at DESC LIMIT $1")).
			WithArgs(10).
			WillReturnRows(rows)

		records, err := repo.List(context.Background(), 10)
		assert.NoError(t, err)
		if assert.Len(t, records, 2) {
			assert.Equal(t, "f-2", records[0].ID)
			assert.Equal(t, "unpublished", records[0].Action)
			assert.Equal(t, 520, records[1].StatusCode)
		}
	})

	t.Run("QueryError", func(t *testing.T) {
		mock.ExpectQuery("SELECT id").WithArgs(10).WillReturnError(errors.New("connection reset"))

		_, err := repo.List(context.Background(), 10)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := failure.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM failed_notifications")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
