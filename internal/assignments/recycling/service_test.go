package recycling

import (
	"context"
	"errors"
	"testing"
	"time"

	"telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	today     = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday = today.AddDate(0, 0, -1)
	lastWeek  = today.AddDate(0, 0, -7)
)

type fakeStore struct {
	leads       map[uuid.UUID]*leadrepo.Lead
	assignments []*repository.Assignment
	failOn      uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]*leadrepo.Lead)}
}

// assigned creates a lead pointing at agent with one assignment in status.
func (f *fakeStore) assigned(agent uuid.UUID, date time.Time, status, leadStatus string) (*leadrepo.Lead, *repository.Assignment) {
	lead := &leadrepo.Lead{ID: uuid.New(), Status: leadStatus, AssignedTo: &agent}
	f.leads[lead.ID] = lead
	a := &repository.Assignment{ID: uuid.New(), LeadID: lead.ID, UserID: agent, AssignedDate: date, Status: status}
	f.assignments = append(f.assignments, a)
	return lead, a
}

func (f *fakeStore) InTx(_ context.Context, fn func(Tx) error) error { return fn(f) }

func (f *fakeStore) ListStalePending(_ context.Context, asOf time.Time) ([]repository.Assignment, error) {
	var out []repository.Assignment
	for _, a := range f.assignments {
		if a.Status == repository.StatusPending && a.AssignedDate.Before(asOf) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) LockLead(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	if id == f.failOn {
		return leadrepo.Lead{}, errors.New("connection reset")
	}
	l, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return *l, nil
}

func (f *fakeStore) RecycleIfStale(_ context.Context, id uuid.UUID, asOf time.Time) (bool, error) {
	for _, a := range f.assignments {
		if a.ID == id && a.Status == repository.StatusPending && a.AssignedDate.Before(asOf) {
			a.Status = repository.StatusRecycled
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetLeadAssignment(_ context.Context, leadID uuid.UUID, agentID *uuid.UUID, status string) error {
	l := f.leads[leadID]
	l.AssignedTo = agentID
	l.Status = status
	return nil
}

func TestRecycle_OnlyTouchesPendingAssignmentsBeforeAsOf(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()

	staleLead, stale := store.assigned(agent, yesterday, repository.StatusPending, domain.StatusAssigned)
	olderLead, older := store.assigned(agent, lastWeek, repository.StatusPending, domain.StatusAssigned)
	todayLead, fresh := store.assigned(agent, today, repository.StatusPending, domain.StatusAssigned)
	workedLead, worked := store.assigned(agent, yesterday, repository.StatusWorking, domain.StatusCalled)
	_, done := store.assigned(agent, lastWeek, repository.StatusCompleted, domain.StatusConverted)

	n, err := New(store, nil, nil, nil).Recycle(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, repository.StatusRecycled, stale.Status)
	assert.Equal(t, repository.StatusRecycled, older.Status)
	assert.Equal(t, repository.StatusPending, fresh.Status)
	assert.Equal(t, repository.StatusWorking, worked.Status)
	assert.Equal(t, repository.StatusCompleted, done.Status)

	for _, l := range []*leadrepo.Lead{staleLead, olderLead} {
		assert.Equal(t, domain.StatusNew, l.Status)
		assert.Nil(t, l.AssignedTo)
	}
	assert.Equal(t, domain.StatusAssigned, todayLead.Status)
	assert.Equal(t, domain.StatusCalled, workedLead.Status)
	require.NotNil(t, workedLead.AssignedTo)
}

func TestRecycle_LeavesLeadAloneWhenItMovedOn(t *testing.T) {
	store := newFakeStore()
	agent, other := uuid.New(), uuid.New()

	lead, a := store.assigned(agent, yesterday, repository.StatusPending, domain.StatusAssigned)
	lead.AssignedTo = &other

	n, err := New(store, nil, nil, nil).Recycle(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, repository.StatusRecycled, a.Status)
	assert.Equal(t, domain.StatusAssigned, lead.Status)
	assert.Equal(t, other, *lead.AssignedTo)
}

func TestRecycle_IsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.assigned(uuid.New(), yesterday, repository.StatusPending, domain.StatusAssigned)
	svc := New(store, nil, nil, nil)

	n, err := svc.Recycle(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.Recycle(context.Background(), today)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecycle_StoreFailureAborts(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()
	_, first := store.assigned(agent, lastWeek, repository.StatusPending, domain.StatusAssigned)
	broken, _ := store.assigned(agent, yesterday, repository.StatusPending, domain.StatusAssigned)
	store.failOn = broken.ID

	n, err := New(store, nil, nil, nil).Recycle(context.Background(), today)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, repository.StatusRecycled, first.Status)
}
