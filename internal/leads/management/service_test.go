package management

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telesales_backend/internal/leads/domain"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/phonevault"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]repository.Lead
	order []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeStore) InTx(_ context.Context, fn func(Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) LockPhoneIndex(context.Context, string) error { return nil }

func (f *fakeStore) FindByLast4(_ context.Context, last4 string) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, id := range f.order {
		if f.leads[id].PhoneLast4 == last4 {
			out = append(out, f.leads[id])
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, p repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:             uuid.New(),
		Name:           p.Name,
		Email:          p.Email,
		PhoneEncrypted: p.PhoneEncrypted,
		PhoneLast4:     p.PhoneLast4,
		PhoneFirst4:    p.PhoneFirst4,
		Source:         p.Source,
		QualityTag:     p.QualityTag,
		BatchID:        p.BatchID,
		Status:         domain.StatusNew,
		CreatedAt:      time.Now(),
	}
	f.leads[lead.ID] = lead
	f.order = append(f.order, lead.ID)
	return lead, nil
}

func (f *fakeStore) LockByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	lead := f.leads[id]
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) SetQualityTag(_ context.Context, id uuid.UUID, tag *string) error {
	lead := f.leads[id]
	lead.QualityTag = tag
	f.leads[id] = lead
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LockByID(ctx, id)
}

func (f *fakeStore) List(_ context.Context, p repository.ListParams) ([]repository.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Lead
	for _, id := range f.order {
		lead := f.leads[id]
		if p.AssignedTo != nil && (lead.AssignedTo == nil || *lead.AssignedTo != *p.AssignedTo) {
			continue
		}
		out = append(out, lead)
	}
	return out, len(out), nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *phonevault.Vault) {
	t.Helper()
	vault, err := phonevault.New("test-secret", "880")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	store := newFakeStore()
	return New(store, vault, nil, nil), store, vault
}

var manager = actor.New(uuid.New(), actor.RoleManager)

func TestCreateLead_StoresEncryptedPhoneWithIndices(t *testing.T) {
	svc, _, vault := newTestService(t)

	lead, err := svc.CreateLead(context.Background(), manager, CreateLeadInput{Name: " Rahim ", Phone: "+880 1921-805176"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Name != "Rahim" || lead.Source != domain.SourceManual || lead.Status != domain.StatusNew {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.PhoneLast4 != "5176" || lead.PhoneFirst4 != "1921" {
		t.Fatalf("unexpected indices %q/%q", lead.PhoneLast4, lead.PhoneFirst4)
	}
	raw, err := vault.Decode(lead.PhoneEncrypted)
	if err != nil || raw != "+880 1921-805176" {
		t.Fatalf("expected stored ciphertext to decode to input, got %q (%v)", raw, err)
	}
}

func TestCreateLead_RejectsDuplicateRegardlessOfFormatting(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "A", Phone: "8801921805176"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.CreateLead(ctx, manager, CreateLeadInput{Name: "B", Phone: "+880-1921-805176"})
	if apperr.GetCode(err) != apperr.CodeDuplicateLead {
		t.Fatalf("expected duplicate_lead, got %v", err)
	}
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected apperr, got %T", err)
	}
	details, ok := domainErr.Details.(DuplicateDetails)
	if !ok || details.ExistingLeadID != first.ID {
		t.Fatalf("expected details naming %s, got %+v", first.ID, domainErr.Details)
	}
}

func TestCreateLead_SameLast4DifferentNumberIsNotDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "A", Phone: "8801921805176"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "B", Phone: "01921805176"}); err != nil {
		t.Fatalf("expected distinct digit string to be accepted, got %v", err)
	}
}

func TestCreateLead_SkipsUndecodableCandidates(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	corrupt, _ := store.Create(ctx, repository.CreateLeadParams{Name: "Broken", PhoneEncrypted: "deadbeef", PhoneLast4: "5176"})

	lead, err := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "C", Phone: "01921805176"})
	if err != nil {
		t.Fatalf("expected corrupt candidate to be skipped, got %v", err)
	}
	if lead.ID == corrupt.ID {
		t.Fatal("expected a new lead")
	}
}

func TestCreateLead_RequiresNameAndPhone(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateLead(context.Background(), manager, CreateLeadInput{Name: "X"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.CreateLead(context.Background(), manager, CreateLeadInput{Name: "X", Phone: "--"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for digitless phone, got %v", err)
	}
}

func TestFindDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "A", Phone: "01921805176"})

	found, err := svc.FindDuplicate(ctx, "0192 180 5176")
	if err != nil || found == nil || found.ID != lead.ID {
		t.Fatalf("expected to find %s, got %+v (%v)", lead.ID, found, err)
	}
	found, err = svc.FindDuplicate(ctx, "01700000000")
	if err != nil || found != nil {
		t.Fatalf("expected no match, got %+v (%v)", found, err)
	}
}

func TestUpdateStatus_GuardsDistributionOwnedStatuses(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "A", Phone: "01921805176"})

	_, err := svc.UpdateStatus(ctx, manager, lead.ID, domain.StatusInterested, nil)
	if apperr.GetCode(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected new lead to be owned by distribution, got %v", err)
	}

	store.leads[lead.ID] = func() repository.Lead {
		l := store.leads[lead.ID]
		l.Status = domain.StatusCalled
		return l
	}()
	tag := domain.QualityGood
	updated, err := svc.UpdateStatus(ctx, manager, lead.ID, domain.StatusFollowUp, &tag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusFollowUp || store.leads[lead.ID].QualityTag == nil {
		t.Fatalf("expected status and quality tag to be updated, got %+v", updated)
	}

	_, err = svc.UpdateStatus(ctx, manager, lead.ID, domain.StatusAssigned, nil)
	if apperr.GetCode(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition, got %v", err)
	}
}

func TestAgentsOnlySeeOwnLeads(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	agentID := uuid.New()
	agent := actor.New(agentID, actor.RoleAgent)

	mine, _ := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "Mine", Phone: "01711111111"})
	other, _ := svc.CreateLead(ctx, manager, CreateLeadInput{Name: "Other", Phone: "01822222222"})
	l := store.leads[mine.ID]
	l.AssignedTo = &agentID
	store.leads[mine.ID] = l

	if _, err := svc.GetByID(ctx, agent, mine.ID); err != nil {
		t.Fatalf("expected agent to read own lead: %v", err)
	}
	if _, err := svc.GetByID(ctx, agent, other.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	items, total, err := svc.List(ctx, agent, repository.ListParams{})
	if err != nil || total != 1 || items[0].ID != mine.ID {
		t.Fatalf("expected only own lead, got %d items (%v)", total, err)
	}
	if _, err := svc.GetByID(ctx, agent, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPhoneFilter(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := []struct {
		in, last4, first4 string
	}{
		{"8801921805176", "5176", "1921"},
		{"0192-180-5176", "5176", "0192"},
		{"5176", "5176", ""},
		{"12", "", ""},
	}
	for _, tc := range cases {
		last4, first4 := svc.PhoneFilter(tc.in)
		if last4 != tc.last4 || first4 != tc.first4 {
			t.Errorf("PhoneFilter(%q) = %q/%q, want %q/%q", tc.in, last4, first4, tc.last4, tc.first4)
		}
	}
}
