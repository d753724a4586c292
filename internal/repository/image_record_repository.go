package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoboard/api/internal/models"
)

var (
	ErrRecordNotFound  = errors.New("image record not found")
	ErrDuplicateRecord = errors.New("image record already exists")
)

const uniqueViolation = "23505"

type ImageRecordRepository struct {
	pool *pgxpool.Pool
}

func NewImageRecordRepository(pool *pgxpool.Pool) *ImageRecordRepository {
	return &ImageRecordRepository{pool: pool}
}

func (r *ImageRecordRepository) Insert(ctx context.Context, record models.ImageRecord) error {
	const query = `
		INSERT INTO image_records (
			id, external_id, url, metadata, status, uploaded_at, approved_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.ExternalID,
		record.URL,
		record.Metadata,
		record.Status,
		record.UploadedAt,
		record.ApprovedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (r *ImageRecordRepository) FindByExternalID(ctx context.Context, externalID string) (models.ImageRecord, error) {
	const query = `
		SELECT id, external_id, url, metadata, status, uploaded_at, approved_at, created_at, updated_at
		FROM image_records WHERE external_id = $1
	`

	row := r.pool.QueryRow(ctx, query, externalID)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ImageRecord{}, ErrRecordNotFound
		}
		return models.ImageRecord{}, err
	}
	return record, nil
}

func (r *ImageRecordRepository) ListByStatus(ctx context.Context, status models.RecordStatus) ([]models.ImageRecord, error) {
	const query = `
		SELECT id, external_id, url, metadata, status, uploaded_at, approved_at, created_at, updated_at
		FROM image_records
		WHERE status = $1
		ORDER BY uploaded_at DESC
	`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ImageRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *ImageRecordRepository) UpdateStatus(ctx context.Context, externalID string, status models.RecordStatus, at time.Time) error {
	const query = `
		UPDATE image_records
		SET status = $2,
		    approved_at = CASE WHEN $2 = 'approved' THEN $3 ELSE approved_at END,
		    updated_at = NOW()
		WHERE external_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, externalID, status, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *ImageRecordRepository) Delete(ctx context.Context, externalID string) error {
	const query = `DELETE FROM image_records WHERE external_id = $1`
	cmd, err := r.pool.Exec(ctx, query, externalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.ImageRecord, error) {
	var record models.ImageRecord
	err := row.Scan(
		&record.ID,
		&record.ExternalID,
		&record.URL,
		&record.Metadata,
		&record.Status,
		&record.UploadedAt,
		&record.ApprovedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	return record, err
}
