// Package management handles lead creation, deduplication and lookups.
package management

import (
	"context"
	"errors"
	"strings"

	"telesales_backend/internal/events"
	"telesales_backend/internal/leads/domain"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/metrics"
	"telesales_backend/internal/phonevault"
	"telesales_backend/platform/phone"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/apperr"
	"telesales_backend/platform/logger"

	"github.com/google/uuid"
)

// Vault is the subset of the phone vault used by lead management.
type Vault interface {
	Encode(raw string) (phonevault.Sealed, error)
	Decode(ciphertext string) (string, error)
	Indices(raw string) phonevault.Indices
}

// CreateLeadInput carries the fields of a new lead. Phone is the plaintext
// number; it is only ever stored encrypted.
type CreateLeadInput struct {
	Name       string
	Phone      string
	Email      string
	Address    string
	City       string
	State      string
	ZipCode    string
	Source     string
	Notes      string
	QualityTag string
	BatchID    *uuid.UUID
}

// DuplicateDetails is attached to duplicate_lead errors.
type DuplicateDetails struct {
	ExistingLeadID uuid.UUID `json:"existingLeadId"`
}

// Service handles lead management operations.
type Service struct {
	store Store
	vault Vault
	bus   events.Publisher
	log   *logger.Logger
}

// New creates a new lead management service.
func New(store Store, vault Vault, bus events.Publisher, log *logger.Logger) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, vault: vault, bus: bus, log: log}
}

// CreateLead stores a new lead unless its number already belongs to a live
// lead, in which case a duplicate_lead conflict names the existing lead.
func (s *Service) CreateLead(ctx context.Context, a actor.Actor, in CreateLeadInput) (repository.Lead, error) {
	name := strings.TrimSpace(in.Name)
	raw := strings.TrimSpace(in.Phone)
	if name == "" || raw == "" {
		return repository.Lead{}, apperr.Validation("name and phone are required")
	}
	if in.QualityTag != "" && !domain.IsValidQualityTag(in.QualityTag) {
		return repository.Lead{}, apperr.Validation("invalid quality tag")
	}

	sealed, err := s.vault.Encode(raw)
	if err != nil {
		if errors.Is(err, phonevault.ErrEmptyNumber) {
			return repository.Lead{}, apperr.Validation("phone must contain digits")
		}
		return repository.Lead{}, err
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = domain.SourceManual
	}

	var lead repository.Lead
	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockPhoneIndex(ctx, sealed.Last4); err != nil {
			return err
		}

		existing, err := s.findDuplicate(ctx, tx, raw, sealed.Last4)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("a lead with this phone number already exists").
				WithCode(apperr.CodeDuplicateLead).
				WithDetails(DuplicateDetails{ExistingLeadID: existing.ID})
		}

		lead, err = tx.Create(ctx, repository.CreateLeadParams{
			Name:           name,
			Email:          optional(in.Email),
			PhoneEncrypted: sealed.Ciphertext,
			PhoneLast4:     sealed.Last4,
			PhoneFirst4:    sealed.First4,
			Address:        strings.TrimSpace(in.Address),
			City:           strings.TrimSpace(in.City),
			State:          strings.TrimSpace(in.State),
			ZipCode:        strings.TrimSpace(in.ZipCode),
			Source:         source,
			Notes:          optional(in.Notes),
			QualityTag:     optional(in.QualityTag),
			BatchID:        in.BatchID,
		})
		return err
	})
	if err != nil {
		if apperr.GetCode(err) == apperr.CodeDuplicateLead {
			metrics.RecordDuplicateRejected()
		}
		return repository.Lead{}, err
	}

	metrics.RecordLeadCreated(lead.Source)
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    lead.Source,
		BatchID:   lead.BatchID,
		CreatedBy: a.UserID(),
	})
	return lead, nil
}

// FindDuplicate returns the live lead whose number matches raw, or nil.
func (s *Service) FindDuplicate(ctx context.Context, raw string) (*repository.Lead, error) {
	var found *repository.Lead
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		found, err = s.findDuplicate(ctx, tx, raw, s.vault.Indices(raw).Last4)
		return err
	})
	return found, err
}

// findDuplicate loads the last4 candidates and decodes each one. Candidates
// that cannot be decoded are skipped so one corrupt row never blocks intake.
func (s *Service) findDuplicate(ctx context.Context, tx Tx, raw, last4 string) (*repository.Lead, error) {
	if last4 == "" {
		return nil, nil
	}

	candidates, err := tx.FindByLast4(ctx, last4)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		stored, err := s.vault.Decode(candidates[i].PhoneEncrypted)
		if err != nil {
			s.log.WithContext(ctx).BatchItemFailed("lead_dedup", candidates[i].ID.String(), err)
			continue
		}
		if phonevault.SameNumber(stored, raw) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// GetByID returns a lead. Agents may only read leads assigned to them.
func (s *Service) GetByID(ctx context.Context, a actor.Actor, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}
	if !canSee(a, lead) {
		return repository.Lead{}, apperr.Forbidden("lead is not assigned to you")
	}
	return lead, nil
}

// List returns a page of leads. Agents only see their own leads.
func (s *Service) List(ctx context.Context, a actor.Actor, params repository.ListParams) ([]repository.Lead, int, error) {
	if !a.CanDistribute() {
		id := a.ID
		params.AssignedTo = &id
	}
	return s.store.List(ctx, params)
}

// PhoneFilter turns a phone search into index filters. Last4 alone narrows
// the candidates; First4 is added only when enough digits were typed to
// contain a national prefix.
func (s *Service) PhoneFilter(raw string) (last4, first4 string) {
	digits := phone.Digits(raw)
	if len(digits) < 4 {
		return "", ""
	}
	idx := s.vault.Indices(digits)
	if len(digits) >= 8 {
		return idx.Last4, idx.First4
	}
	return idx.Last4, ""
}

// UpdateStatus applies a direct status edit. Statuses owned by distribution
// and recycling cannot be set or left this way.
func (s *Service) UpdateStatus(ctx context.Context, a actor.Actor, id uuid.UUID, status string, qualityTag *string) (repository.Lead, error) {
	if !domain.IsValidStatus(status) {
		return repository.Lead{}, apperr.Validation("unknown lead status")
	}
	if qualityTag != nil && *qualityTag != "" && !domain.IsValidQualityTag(*qualityTag) {
		return repository.Lead{}, apperr.Validation("invalid quality tag")
	}

	var updated repository.Lead
	err := s.store.InTx(ctx, func(tx Tx) error {
		lead, err := tx.LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("lead not found")
			}
			return err
		}
		if !canSee(a, lead) {
			return apperr.Forbidden("lead is not assigned to you")
		}
		if lead.Status != status && (domain.IsDistributionOwned(status) || domain.IsDistributionOwned(lead.Status)) {
			return apperr.Conflict("status is managed by lead distribution").WithCode(apperr.CodeInvalidTransition)
		}
		if lead.Status == domain.StatusConverted && status != domain.StatusConverted {
			return apperr.Conflict("converted leads cannot change status").WithCode(apperr.CodeInvalidTransition)
		}

		if qualityTag != nil {
			if err := tx.SetQualityTag(ctx, id, optional(*qualityTag)); err != nil {
				return err
			}
		}
		updated, err = tx.UpdateStatus(ctx, id, status)
		return err
	})
	if err != nil {
		return repository.Lead{}, err
	}
	return updated, nil
}

// RevealPhone decodes a lead's number for display. Undecodable numbers yield
// an empty string and are logged.
func (s *Service) RevealPhone(ctx context.Context, lead repository.Lead) string {
	raw, err := s.vault.Decode(lead.PhoneEncrypted)
	if err != nil {
		s.log.WithContext(ctx).Warn("lead phone could not be decoded", "leadId", lead.ID, "error", err)
		return ""
	}
	return raw
}

func canSee(a actor.Actor, lead repository.Lead) bool {
	if a.CanDistribute() {
		return true
	}
	return lead.AssignedTo != nil && *lead.AssignedTo == a.ID
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
