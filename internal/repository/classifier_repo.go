package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"watson-sdk/internal/domain"
)

var (
	ErrClassifierNotFound = errors.New("classifier not found")
	ErrClassifierExists   = errors.New("classifier already exists")
)

// ClassifierRepository persiste los clasificadores del servidor simulado.
type ClassifierRepository interface {
	Create(ctx context.Context, record domain.ClassifierRecord) error
	GetByID(ctx context.Context, id string) (domain.ClassifierRecord, error)
	List(ctx context.Context) ([]domain.ClassifierRecord, error)
	Delete(ctx context.Context, id string) error
}

type PgClassifierRepository struct {
	pool *pgxpool.Pool
}

func NewPgClassifierRepository(pool *pgxpool.Pool) *PgClassifierRepository {
	return &PgClassifierRepository{pool: pool}
}

// EnsureSchema crea la tabla si no existe.
func (r *PgClassifierRepository) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS nlc_classifiers (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			language    TEXT NOT NULL,
			url         TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			ready_at    TIMESTAMPTZ NOT NULL,
			examples    JSONB NOT NULL DEFAULT '[]'
		)
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

func (r *PgClassifierRepository) Create(ctx context.Context, record domain.ClassifierRecord) error {
	const query = `
		INSERT INTO nlc_classifiers (id, name, language, url, status, created_at, ready_at, examples)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	examples, err := json.Marshal(record.Examples)
	if err != nil {
		return fmt.Errorf("marshal examples: %w", err)
	}
	c := record.Classifier
	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Language,
		c.URL,
		string(c.Status),
		c.Created,
		record.ReadyAt,
		string(examples),
	)
	return createError(c.ID, err)
}

const uniqueViolation = "23505"

func createError(id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("classifier %s: %w", id, ErrClassifierExists)
	}
	return err
}

func (r *PgClassifierRepository) GetByID(ctx context.Context, id string) (domain.ClassifierRecord, error) {
	const query = `
		SELECT id, name, language, url, status, created_at, ready_at, examples
		FROM nlc_classifiers
		WHERE id = $1
	`
	record, err := scanClassifier(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ClassifierRecord{}, ErrClassifierNotFound
	}
	return record, err
}

func (r *PgClassifierRepository) List(ctx context.Context) ([]domain.ClassifierRecord, error) {
	const query = `
		SELECT id, name, language, url, status, created_at, ready_at, examples
		FROM nlc_classifiers
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.ClassifierRecord{}
	for rows.Next() {
		record, err := scanClassifier(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PgClassifierRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM nlc_classifiers WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClassifierNotFound
	}
	return nil
}

func scanClassifier(row pgx.Row) (domain.ClassifierRecord, error) {
	var (
		record   domain.ClassifierRecord
		status   string
		examples []byte
	)
	c := &record.Classifier
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Language,
		&c.URL,
		&status,
		&c.Created,
		&record.ReadyAt,
		&examples,
	); err != nil {
		return domain.ClassifierRecord{}, err
	}
	c.Status = domain.ClassifierStatus(status)
	if len(examples) > 0 {
		if err := json.Unmarshal(examples, &record.Examples); err != nil {
			return domain.ClassifierRecord{}, fmt.Errorf("unmarshal examples: %w", err)
		}
	}
	return record, nil
}
