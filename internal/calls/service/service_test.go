package service

import (
	"context"
	"testing"
	"time"

	assignrepo "telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/calls/repository"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	leads       map[uuid.UUID]*leadrepo.Lead
	assignments map[uuid.UUID]*assignrepo.Assignment
	calls       []repository.CallLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:       make(map[uuid.UUID]*leadrepo.Lead),
		assignments: make(map[uuid.UUID]*assignrepo.Assignment),
	}
}

func (f *fakeStore) assignedLead(agent uuid.UUID) (*leadrepo.Lead, *assignrepo.Assignment) {
	lead := &leadrepo.Lead{ID: uuid.New(), Status: domain.StatusAssigned, AssignedTo: &agent}
	f.leads[lead.ID] = lead
	a := &assignrepo.Assignment{ID: uuid.New(), LeadID: lead.ID, UserID: agent, Status: assignrepo.StatusPending}
	f.assignments[a.ID] = a
	return lead, a
}

func (f *fakeStore) InTx(_ context.Context, fn func(Tx) error) error { return fn(f) }

func (f *fakeStore) GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return f.LockLead(ctx, id)
}

func (f *fakeStore) LockLead(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return *l, nil
}

func (f *fakeStore) ApplyCall(_ context.Context, id uuid.UUID, status string, calledAt time.Time) (leadrepo.Lead, error) {
	l := f.leads[id]
	l.Status = status
	l.CallCount++
	l.LastCalledAt = &calledAt
	l.IsLocked = true
	return *l, nil
}

func (f *fakeStore) ActiveAssignment(_ context.Context, leadID uuid.UUID) (*assignrepo.Assignment, error) {
	for _, a := range f.assignments {
		if a.LeadID == leadID && a.Status != assignrepo.StatusRecycled {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetAssignmentStatus(_ context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	a := f.assignments[id]
	a.Status = status
	if completedAt != nil {
		a.CompletedAt = completedAt
	}
	return nil
}

func (f *fakeStore) InsertCall(_ context.Context, p repository.InsertParams) (repository.CallLog, error) {
	c := repository.CallLog{
		ID:              uuid.New(),
		LeadID:          p.LeadID,
		UserID:          p.UserID,
		Outcome:         p.Outcome,
		Notes:           p.Notes,
		DurationSeconds: p.DurationSeconds,
		CalledAt:        p.CalledAt,
	}
	f.calls = append(f.calls, c)
	return c, nil
}

func (f *fakeStore) ListForLead(_ context.Context, leadID uuid.UUID) ([]repository.CallLog, error) {
	var out []repository.CallLog
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].LeadID == leadID {
			out = append(out, f.calls[i])
		}
	}
	return out, nil
}

func TestStatusFor_CoversEveryOutcome(t *testing.T) {
	cases := map[string]string{
		OutcomeConnected:         domain.StatusCalled,
		OutcomeNotConnected:      domain.StatusCalled,
		OutcomeInterested:        domain.StatusInterested,
		OutcomeFollowUpScheduled: domain.StatusFollowUp,
		OutcomeConverted:         domain.StatusConverted,
		OutcomeWrongNumber:       domain.StatusInvalid,
		OutcomeNoInterest:        domain.StatusNotInterested,
	}
	for outcome, want := range cases {
		got, ok := StatusFor(outcome)
		require.True(t, ok, outcome)
		assert.Equal(t, want, got, outcome)
	}

	_, ok := StatusFor("voicemail")
	assert.False(t, ok)
}

func TestLogCall_ConvertedLocksLeadAndCompletesAssignment(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()
	lead, a := store.assignedLead(agent)

	call, err := New(store, nil).LogCall(context.Background(), lead.ID, agent, OutcomeConverted, "  sold two  ", 95)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConverted, lead.Status)
	assert.True(t, lead.IsLocked)
	assert.Equal(t, 1, lead.CallCount)
	require.NotNil(t, lead.LastCalledAt)
	assert.Equal(t, call.CalledAt, *lead.LastCalledAt)

	assert.Equal(t, assignrepo.StatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)

	require.NotNil(t, call.Notes)
	assert.Equal(t, "sold two", *call.Notes)
	assert.Equal(t, 95, call.DurationSeconds)
}

func TestLogCall_LockSurvivesFurtherCalls(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()
	lead, a := store.assignedLead(agent)
	svc := New(store, nil)

	_, err := svc.LogCall(context.Background(), lead.ID, agent, OutcomeNotConnected, "", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCalled, lead.Status)
	assert.Equal(t, assignrepo.StatusWorking, a.Status)
	assert.Nil(t, a.CompletedAt)

	_, err = svc.LogCall(context.Background(), lead.ID, agent, OutcomeFollowUpScheduled, "", 40)
	require.NoError(t, err)

	assert.True(t, lead.IsLocked)
	assert.Equal(t, 2, lead.CallCount)
	assert.Equal(t, domain.StatusFollowUp, lead.Status)
	assert.Equal(t, assignrepo.StatusWorking, a.Status)
}

func TestLogCall_ConvertedLeadKeepsStatus(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()
	lead, _ := store.assignedLead(agent)
	svc := New(store, nil)

	_, err := svc.LogCall(context.Background(), lead.ID, agent, OutcomeConverted, "", 10)
	require.NoError(t, err)
	_, err = svc.LogCall(context.Background(), lead.ID, agent, OutcomeConnected, "delivery question", 30)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConverted, lead.Status)
	assert.Equal(t, 2, lead.CallCount)
	assert.Len(t, store.calls, 2)
}

func TestLogCall_RejectsOtherAgents(t *testing.T) {
	store := newFakeStore()
	owner, other := uuid.New(), uuid.New()
	lead, a := store.assignedLead(owner)

	_, err := New(store, nil).LogCall(context.Background(), lead.ID, other, OutcomeConnected, "", 0)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	assert.Equal(t, domain.StatusAssigned, lead.Status)
	assert.False(t, lead.IsLocked)
	assert.Zero(t, lead.CallCount)
	assert.Equal(t, assignrepo.StatusPending, a.Status)
	assert.Empty(t, store.calls)
}

func TestLogCall_Validation(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()
	lead, _ := store.assignedLead(agent)
	svc := New(store, nil)

	_, err := svc.LogCall(context.Background(), lead.ID, agent, "voicemail", "", 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.LogCall(context.Background(), lead.ID, agent, OutcomeConnected, "", -1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.LogCall(context.Background(), uuid.New(), agent, OutcomeConnected, "", 0)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListForLead_Access(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	lead, _ := store.assignedLead(owner)
	svc := New(store, nil)

	_, err := svc.LogCall(context.Background(), lead.ID, owner, OutcomeConnected, "", 12)
	require.NoError(t, err)

	calls, err := svc.ListForLead(context.Background(), actor.New(owner, actor.RoleAgent), lead.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 1)

	calls, err = svc.ListForLead(context.Background(), actor.New(uuid.New(), actor.RoleManager), lead.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 1)

	_, err = svc.ListForLead(context.Background(), actor.New(uuid.New(), actor.RoleAgent), lead.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
