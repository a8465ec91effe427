package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	assignrepo "telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/calls/repository"
	"telesales_backend/internal/calls/service"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/platform/httpkit"
	"telesales_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore holds one lead and its calls.
type memStore struct {
	lead  leadrepo.Lead
	calls []repository.CallLog
}

func (m *memStore) InTx(_ context.Context, fn func(service.Tx) error) error { return fn(m) }

func (m *memStore) GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return m.LockLead(ctx, id)
}

func (m *memStore) LockLead(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	if id != m.lead.ID {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return m.lead, nil
}

func (m *memStore) ApplyCall(_ context.Context, _ uuid.UUID, status string, calledAt time.Time) (leadrepo.Lead, error) {
	m.lead.Status = status
	m.lead.CallCount++
	m.lead.LastCalledAt = &calledAt
	m.lead.IsLocked = true
	return m.lead, nil
}

func (m *memStore) ActiveAssignment(context.Context, uuid.UUID) (*assignrepo.Assignment, error) {
	return nil, nil
}

func (m *memStore) SetAssignmentStatus(context.Context, uuid.UUID, string, *time.Time) error {
	return nil
}

func (m *memStore) InsertCall(_ context.Context, p repository.InsertParams) (repository.CallLog, error) {
	c := repository.CallLog{
		ID:              uuid.New(),
		LeadID:          p.LeadID,
		UserID:          p.UserID,
		Outcome:         p.Outcome,
		Notes:           p.Notes,
		DurationSeconds: p.DurationSeconds,
		CalledAt:        p.CalledAt,
	}
	m.calls = append(m.calls, c)
	return c, nil
}

func (m *memStore) ListForLead(_ context.Context, leadID uuid.UUID) ([]repository.CallLog, error) {
	if leadID != m.lead.ID {
		return nil, nil
	}
	return m.calls, nil
}

func newEngine(store *memStore, userID uuid.UUID, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/call-logs", func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(httpkit.ContextUserIDKey, userID)
			c.Set(httpkit.ContextRolesKey, roles)
		}
		c.Next()
	})
	New(service.New(store, nil), validator.New("BD")).RegisterRoutes(group)
	return engine
}

func post(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/call-logs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestLogCall_CreatesCallForAssignedAgent(t *testing.T) {
	agent := uuid.New()
	store := &memStore{lead: leadrepo.Lead{ID: uuid.New(), Status: domain.StatusAssigned, AssignedTo: &agent}}
	engine := newEngine(store, agent, "agent")

	rec := post(engine, `{"leadId":"`+store.lead.ID.String()+`","outcome":"interested","notes":"call back after 6pm","durationSeconds":95}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		LeadID          uuid.UUID `json:"leadId"`
		Outcome         string    `json:"outcome"`
		Notes           *string   `json:"notes"`
		DurationSeconds int       `json:"durationSeconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, store.lead.ID, resp.LeadID)
	assert.Equal(t, "interested", resp.Outcome)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "call back after 6pm", *resp.Notes)
	assert.Equal(t, 95, resp.DurationSeconds)

	assert.Equal(t, domain.StatusInterested, store.lead.Status)
	assert.True(t, store.lead.IsLocked)
}

func TestLogCall_RejectsBadRequests(t *testing.T) {
	agent := uuid.New()
	store := &memStore{lead: leadrepo.Lead{ID: uuid.New(), Status: domain.StatusAssigned, AssignedTo: &agent}}
	engine := newEngine(store, agent, "agent")
	lead := store.lead.ID.String()

	cases := map[string]string{
		"malformed json":   `{"leadId":`,
		"missing lead":     `{"outcome":"connected"}`,
		"unknown outcome":  `{"leadId":"` + lead + `","outcome":"voicemail"}`,
		"negative seconds": `{"leadId":"` + lead + `","outcome":"connected","durationSeconds":-1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := post(engine, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, store.calls)
}

func TestLogCall_OtherAgentForbidden(t *testing.T) {
	agent := uuid.New()
	store := &memStore{lead: leadrepo.Lead{ID: uuid.New(), Status: domain.StatusAssigned, AssignedTo: &agent}}
	engine := newEngine(store, uuid.New(), "agent")

	rec := post(engine, `{"leadId":"`+store.lead.ID.String()+`","outcome":"connected"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.calls)
}

func TestLogCall_RequiresIdentity(t *testing.T) {
	agent := uuid.New()
	store := &memStore{lead: leadrepo.Lead{ID: uuid.New(), AssignedTo: &agent}}
	engine := newEngine(store, uuid.Nil)

	rec := post(engine, `{"leadId":"`+store.lead.ID.String()+`","outcome":"connected"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListForLead(t *testing.T) {
	agent := uuid.New()
	store := &memStore{lead: leadrepo.Lead{ID: uuid.New(), Status: domain.StatusCalled, AssignedTo: &agent}}
	store.calls = []repository.CallLog{{ID: uuid.New(), LeadID: store.lead.ID, UserID: agent, Outcome: "connected"}}

	t.Run("manager sees history", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newEngine(store, uuid.New(), "manager").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/call-logs/"+store.lead.ID.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})

	t.Run("unrelated agent is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newEngine(store, uuid.New(), "agent").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/call-logs/"+store.lead.ID.String(), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newEngine(store, agent, "agent").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/call-logs/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
