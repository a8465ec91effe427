package stats

import (
	"context"
	"testing"
	"time"

	"telesales_backend/internal/assignments/repository"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	agents      []repository.Agent
	counts      map[uuid.UUID]int
	assignments []repository.Assignment
	leads       []leadrepo.Lead
	askedDate   time.Time
}

func (f *fakeStore) LeadCounts(context.Context) (leadrepo.Counts, error) {
	return leadrepo.Counts{Total: 40, Unassigned: 7}, nil
}

func (f *fakeStore) ListActiveAgents(context.Context) ([]repository.Agent, error) {
	return f.agents, nil
}

func (f *fakeStore) CountsForDate(_ context.Context, date time.Time) (map[uuid.UUID]int, error) {
	f.askedDate = date
	return f.counts, nil
}

func (f *fakeStore) ListForAgentOnDate(_ context.Context, agentID uuid.UUID, date time.Time) ([]repository.Assignment, error) {
	f.askedDate = date
	var out []repository.Assignment
	for _, a := range f.assignments {
		if a.UserID == agentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) LeadsByIDs(_ context.Context, ids []uuid.UUID) ([]leadrepo.Lead, error) {
	var out []leadrepo.Lead
	for _, l := range f.leads {
		for _, id := range ids {
			if l.ID == id {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

// 23:30 UTC on the 9th is already the 10th in Dhaka.
var calendar = businessday.New(time.FixedZone("Asia/Dhaka", 6*3600), func() time.Time {
	return time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
})

func TestStats(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	store := &fakeStore{
		agents: []repository.Agent{
			{ID: a1, Name: "Rina", DailyLeadLimit: 5, IsActive: true},
			{ID: a2, Name: "Tanvir", DailyLeadLimit: 2, IsActive: true},
		},
		counts: map[uuid.UUID]int{a1: 3, a2: 2},
	}

	got, err := New(store, calendar).Stats(context.Background(), actor.New(uuid.New(), actor.RoleSuperAdmin))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", got.Date)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), store.askedDate)
	assert.Equal(t, 40, got.TotalLeads)
	assert.Equal(t, 7, got.UnassignedLeads)
	assert.Equal(t, 5, got.AssignedToday)
	assert.Equal(t, 2, got.ActiveAgents)
	assert.Equal(t, []AgentLoad{
		{AgentID: a1, Name: "Rina", AssignedToday: 3, DailyLimit: 5, Remaining: 2},
		{AgentID: a2, Name: "Tanvir", AssignedToday: 2, DailyLimit: 2, Remaining: 0},
	}, got.Agents)

	_, err = New(store, calendar).Stats(context.Background(), actor.New(a1, actor.RoleAgent))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestTodayLeads(t *testing.T) {
	agent, other := uuid.New(), uuid.New()
	lead := leadrepo.Lead{ID: uuid.New(), Name: "Karim"}
	store := &fakeStore{
		assignments: []repository.Assignment{{ID: uuid.New(), LeadID: lead.ID, UserID: agent, Status: repository.StatusPending}},
		leads:       []leadrepo.Lead{lead},
	}
	svc := New(store, calendar)

	items, err := svc.TodayLeads(context.Background(), actor.New(agent, actor.RoleAgent), agent)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Karim", items[0].Lead.Name)

	_, err = svc.TodayLeads(context.Background(), actor.New(other, actor.RoleAgent), agent)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	items, err = svc.TodayLeads(context.Background(), actor.New(other, actor.RoleManager), agent)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
