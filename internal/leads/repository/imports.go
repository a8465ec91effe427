package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrBatchNotFound = errors.New("import batch not found")

// Import batch statuses.
const (
	BatchPending    = "pending"
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
)

type ImportBatch struct {
	ID             uuid.UUID
	BatchNumber    string
	UploadedBy     *uuid.UUID
	FileName       string
	TotalRows      int
	SuccessfulRows int
	FailedRows     int
	DuplicateRows  int
	Status         string
	ErrorSummary   *string
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

type ImportError struct {
	ID           uuid.UUID
	BatchID      uuid.UUID
	RowNumber    int
	RowData      json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
}

type BatchCounters struct {
	Total      int
	Successful int
	Failed     int
	Duplicates int
}

const batchColumns = `id, batch_number, uploaded_by, file_name, total_rows, successful_rows, failed_rows,
	duplicate_rows, status, error_summary, created_at, started_at, completed_at`

func scanBatch(row pgx.Row) (ImportBatch, error) {
	var b ImportBatch
	err := row.Scan(&b.ID, &b.BatchNumber, &b.UploadedBy, &b.FileName, &b.TotalRows, &b.SuccessfulRows,
		&b.FailedRows, &b.DuplicateRows, &b.Status, &b.ErrorSummary, &b.CreatedAt, &b.StartedAt, &b.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ImportBatch{}, ErrBatchNotFound
	}
	return b, err
}

// CreateBatch inserts a batch already in processing state.
func (r *Repository) CreateBatch(ctx context.Context, batchNumber, fileName string, uploadedBy *uuid.UUID, totalRows int) (ImportBatch, error) {
	return scanBatch(r.db.QueryRow(ctx, `
		INSERT INTO import_batches (batch_number, uploaded_by, file_name, total_rows, status, started_at)
		VALUES ($1, $2, $3, $4, 'processing', now())
		RETURNING `+batchColumns,
		batchNumber, uploadedBy, fileName, totalRows,
	))
}

func (r *Repository) FinishBatch(ctx context.Context, id uuid.UUID, status string, counters BatchCounters, errorSummary *string) (ImportBatch, error) {
	return scanBatch(r.db.QueryRow(ctx, `
		UPDATE import_batches SET
			total_rows = $2, successful_rows = $3, failed_rows = $4, duplicate_rows = $5,
			status = $6, error_summary = $7, completed_at = now()
		WHERE id = $1
		RETURNING `+batchColumns,
		id, counters.Total, counters.Successful, counters.Failed, counters.Duplicates, status, errorSummary,
	))
}

func (r *Repository) InsertImportError(ctx context.Context, batchID uuid.UUID, rowNumber int, rowData json.RawMessage, message string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO import_errors (batch_id, row_number, row_data, error_message) VALUES ($1, $2, $3, $4)
	`, batchID, rowNumber, rowData, message)
	return err
}

func (r *Repository) GetBatch(ctx context.Context, id uuid.UUID) (ImportBatch, error) {
	return scanBatch(r.db.QueryRow(ctx, `SELECT `+batchColumns+` FROM import_batches WHERE id = $1`, id))
}

func (r *Repository) ListImportErrors(ctx context.Context, batchID uuid.UUID) ([]ImportError, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, batch_id, row_number, row_data, error_message, created_at
		FROM import_errors WHERE batch_id = $1 ORDER BY row_number ASC
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ImportError, 0)
	for rows.Next() {
		var e ImportError
		if err := rows.Scan(&e.ID, &e.BatchID, &e.RowNumber, &e.RowData, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
