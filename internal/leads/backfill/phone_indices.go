// Package backfill repairs derived lead columns in place.
package backfill

import (
	"context"
	"time"

	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/phonevault"
	"telesales_backend/platform/logger"

	"github.com/google/uuid"
)

const jobName = "lead-phone-backfill"

type Store interface {
	ListMissingPhoneIndices(ctx context.Context, afterID uuid.UUID, limit int) ([]repository.Lead, error)
	UpdatePhoneIndices(ctx context.Context, id uuid.UUID, last4, first4 string) error
}

type Vault interface {
	Decode(ciphertext string) (string, error)
	Indices(raw string) phonevault.Indices
}

// Report counts what a backfill run did. Undecodable lists the leads whose
// ciphertext could not be opened; they are left untouched.
type Report struct {
	Scanned     int
	Updated     int
	Undecodable []uuid.UUID
}

type PhoneIndices struct {
	store Store
	vault Vault
	log   *logger.Logger
}

func NewPhoneIndices(store Store, vault Vault, log *logger.Logger) *PhoneIndices {
	if log == nil {
		log = logger.Nop()
	}
	return &PhoneIndices{store: store, vault: vault, log: log}
}

// Run recomputes last4 and first4 for every lead missing either, walking the
// table in id order batchSize rows at a time. Store errors stop the run.
func (b *PhoneIndices) Run(ctx context.Context, batchSize int) (Report, error) {
	if batchSize < 1 {
		batchSize = 500
	}
	started := time.Now()

	var (
		report Report
		cursor uuid.UUID
	)
	for {
		batch, err := b.store.ListMissingPhoneIndices(ctx, cursor, batchSize)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}

		for _, lead := range batch {
			cursor = lead.ID
			report.Scanned++

			raw, err := b.vault.Decode(lead.PhoneEncrypted)
			if err != nil {
				report.Undecodable = append(report.Undecodable, lead.ID)
				b.log.BatchItemFailed(jobName, lead.ID.String(), err)
				continue
			}

			idx := b.vault.Indices(raw)
			if err := b.store.UpdatePhoneIndices(ctx, lead.ID, idx.Last4, idx.First4); err != nil {
				return report, err
			}
			report.Updated++
		}
	}

	b.log.JobRun(jobName, started,
		"scanned", report.Scanned,
		"updated", report.Updated,
		"undecodable", len(report.Undecodable),
	)
	return report, nil
}
