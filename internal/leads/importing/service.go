// Package importing runs bulk lead intake. Rows arrive already parsed; each
// one is deduplicated and committed on its own so a bad row never blocks its
// siblings.
package importing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"telesales_backend/internal/events"
	"telesales_backend/internal/leads/domain"
	"telesales_backend/internal/leads/management"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/refcode"
	"telesales_backend/platform/apperr"
	"telesales_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgNameAndPhoneRequired = "Name and phone are required"
	msgDuplicatePhone       = "Duplicate phone number"
)

// Row is one parsed input row.
type Row struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZipCode    string `json:"zipCode,omitempty"`
	Notes      string `json:"notes,omitempty"`
	QualityTag string `json:"qualityTag,omitempty"`
}

// RowError reports why a row was not imported. Row is the spreadsheet row
// number, counting the header as row 1.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report summarizes a finished import.
type Report struct {
	BatchID     uuid.UUID  `json:"batchId"`
	BatchNumber string     `json:"batchNumber"`
	Status      string     `json:"status"`
	TotalRows   int        `json:"totalRows"`
	Successful  int        `json:"successful"`
	Failed      int        `json:"failed"`
	Duplicates  int        `json:"duplicates"`
	Errors      []RowError `json:"errors"`
}

// LeadCreator creates a single deduplicated lead.
type LeadCreator interface {
	CreateLead(ctx context.Context, a actor.Actor, in management.CreateLeadInput) (repository.Lead, error)
}

// BatchStore persists import batches and their per-row errors.
type BatchStore interface {
	CreateBatch(ctx context.Context, batchNumber, fileName string, uploadedBy *uuid.UUID, totalRows int) (repository.ImportBatch, error)
	FinishBatch(ctx context.Context, id uuid.UUID, status string, counters repository.BatchCounters, errorSummary *string) (repository.ImportBatch, error)
	InsertImportError(ctx context.Context, batchID uuid.UUID, rowNumber int, rowData json.RawMessage, message string) error
}

type Service struct {
	leads   LeadCreator
	batches BatchStore
	bus     events.Publisher
	log     *logger.Logger
	now     func() time.Time
}

func New(leads LeadCreator, batches BatchStore, bus events.Publisher, log *logger.Logger) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{leads: leads, batches: batches, bus: bus, log: log, now: time.Now}
}

// Import creates a batch and feeds every row through lead creation. Domain
// rejections are recorded per row; a store failure marks the batch failed and
// aborts the run, leaving already committed rows in place.
func (s *Service) Import(ctx context.Context, a actor.Actor, fileName string, rows []Row) (Report, error) {
	started := s.now()
	batch, err := s.batches.CreateBatch(ctx, refcode.New("BATCH", started), strings.TrimSpace(fileName), a.UserID(), len(rows))
	if err != nil {
		return Report{}, err
	}

	report := Report{
		BatchID:     batch.ID,
		BatchNumber: batch.BatchNumber,
		Status:      repository.BatchProcessing,
		TotalRows:   len(rows),
		Errors:      []RowError{},
	}
	log := s.log.WithContext(ctx)

	for i, row := range rows {
		rowNumber := i + 2

		reason, duplicate, err := s.importRow(ctx, a, batch.ID, row)
		if err != nil {
			return s.abort(ctx, report, err)
		}
		switch {
		case reason == "":
			report.Successful++
			continue
		case duplicate:
			report.Duplicates++
		default:
			report.Failed++
		}

		report.Errors = append(report.Errors, RowError{Row: rowNumber, Reason: reason})
		log.BatchItemFailed("lead_import", fmt.Sprintf("%s#%d", batch.BatchNumber, rowNumber), errors.New(reason))

		rowData, _ := json.Marshal(row)
		if err := s.batches.InsertImportError(ctx, batch.ID, rowNumber, rowData, reason); err != nil {
			return s.abort(ctx, report, err)
		}
	}

	if _, err := s.batches.FinishBatch(ctx, batch.ID, repository.BatchCompleted, report.counters(), nil); err != nil {
		return report, err
	}
	report.Status = repository.BatchCompleted

	s.bus.Publish(ctx, events.LeadImportCompleted{
		BaseEvent:  events.NewBaseEvent(),
		BatchID:    batch.ID,
		Successful: report.Successful,
		Failed:     report.Failed,
		Duplicates: report.Duplicates,
	})
	log.JobRun("lead_import", started,
		"batch", batch.BatchNumber,
		"total", report.TotalRows,
		"successful", report.Successful,
		"failed", report.Failed,
		"duplicates", report.Duplicates,
	)
	return report, nil
}

// importRow returns the rejection reason for a row, or "" when it was stored.
// A non-nil error is a store failure.
func (s *Service) importRow(ctx context.Context, a actor.Actor, batchID uuid.UUID, row Row) (string, bool, error) {
	if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Phone) == "" {
		return msgNameAndPhoneRequired, false, nil
	}

	_, err := s.leads.CreateLead(ctx, a, management.CreateLeadInput{
		Name:       row.Name,
		Phone:      row.Phone,
		Email:      row.Email,
		Address:    row.Address,
		City:       row.City,
		State:      row.State,
		ZipCode:    row.ZipCode,
		Notes:      row.Notes,
		QualityTag: row.QualityTag,
		Source:     domain.SourceImport,
		BatchID:    &batchID,
	})
	switch {
	case err == nil:
		return "", false, nil
	case apperr.GetCode(err) == apperr.CodeDuplicateLead:
		return msgDuplicatePhone, true, nil
	case apperr.IsDomain(err):
		return err.Error(), false, nil
	default:
		return "", false, err
	}
}

func (s *Service) abort(ctx context.Context, report Report, cause error) (Report, error) {
	summary := cause.Error()
	if _, err := s.batches.FinishBatch(ctx, report.BatchID, repository.BatchFailed, report.counters(), &summary); err != nil {
		s.log.WithContext(ctx).DatabaseError("finish_import_batch", err)
	}
	report.Status = repository.BatchFailed
	return report, cause
}

func (r Report) counters() repository.BatchCounters {
	return repository.BatchCounters{
		Total:      r.TotalRows,
		Successful: r.Successful,
		Failed:     r.Failed,
		Duplicates: r.Duplicates,
	}
}
