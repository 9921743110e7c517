package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vacancies (
	id              BIGSERIAL PRIMARY KEY,
	user_id         TEXT        NOT NULL,
	url             TEXT        NOT NULL,
	job_board       TEXT        NOT NULL,
	title           TEXT,
	salary_from     INTEGER,
	salary_to       INTEGER,
	salary_currency TEXT,
	city            TEXT,
	company         TEXT,
	employment      TEXT,
	experience      TEXT,
	schedule        TEXT,
	remote          BOOLEAN     NOT NULL DEFAULT FALSE,
	description     TEXT,
	published_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, url)
)`

const insertSQL = `
INSERT INTO vacancies (
	user_id, url, job_board, title, salary_from, salary_to, salary_currency,
	city, company, employment, experience, schedule, remote, description, published_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (user_id, url) DO NOTHING`

// DB is the part of *pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// VacancyRepository stores vacancies found for a user
type VacancyRepository struct {
	db     DB
	logger *zap.Logger
}

// NewVacancyRepository creates a repository
func NewVacancyRepository(db DB, logger *zap.Logger) *VacancyRepository {
	return &VacancyRepository{db: db, logger: logger}
}

// EnsureSchema creates the vacancies table when missing
func (r *VacancyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: create schema: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Upsert inserts the vacancies of one user in a single batch. A vacancy already
// stored for the user is left untouched; records without url are skipped.
// It returns the number of new rows.
func (r *VacancyRepository) Upsert(ctx context.Context, userID string, list []domain.Vacancy) (int64, error) {
	batch := &pgx.Batch{}
	for _, v := range list {
		if v.URL == nil || *v.URL == "" {
			continue
		}
		batch.Queue(insertSQL,
			userID, *v.URL, string(v.JobBoard), v.Title, v.SalaryFrom, v.SalaryTo, v.SalaryCurrency,
			v.City, v.Company, v.Employment, v.Experience, v.Schedule, v.Remote, v.Description, v.PublishedAt,
		)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := r.db.SendBatch(ctx, batch)

	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return inserted, fmt.Errorf("%w: insert vacancy %d of %d: %v", domain.ErrPersistence, i+1, batch.Len(), err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return inserted, fmt.Errorf("%w: close batch: %v", domain.ErrPersistence, err)
	}

	r.logger.Debug("Vacancies stored",
		zap.String("user_id", userID),
		zap.Int("queued", batch.Len()),
		zap.Int64("inserted", inserted),
	)
	return inserted, nil
}
