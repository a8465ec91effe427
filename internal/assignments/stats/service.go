// Package stats reports today's distribution load.
package stats

import (
	"context"
	"time"

	"telesales_backend/internal/assignments/repository"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
)

type Store interface {
	LeadCounts(ctx context.Context) (leadrepo.Counts, error)
	ListActiveAgents(ctx context.Context) ([]repository.Agent, error)
	CountsForDate(ctx context.Context, date time.Time) (map[uuid.UUID]int, error)
	ListForAgentOnDate(ctx context.Context, agentID uuid.UUID, date time.Time) ([]repository.Assignment, error)
	LeadsByIDs(ctx context.Context, ids []uuid.UUID) ([]leadrepo.Lead, error)
}

type AgentLoad struct {
	AgentID       uuid.UUID `json:"agentId"`
	Name          string    `json:"name"`
	AssignedToday int       `json:"assignedToday"`
	DailyLimit    int       `json:"dailyLimit"`
	Remaining     int       `json:"remaining"`
}

type Stats struct {
	Date            string      `json:"date"`
	TotalLeads      int         `json:"totalLeads"`
	UnassignedLeads int         `json:"unassignedLeads"`
	AssignedToday   int         `json:"assignedToday"`
	ActiveAgents    int         `json:"activeAgents"`
	Agents          []AgentLoad `json:"agents"`
}

// AgentLead is one of an agent's assignments for the day with its lead.
type AgentLead struct {
	Assignment repository.Assignment
	Lead       leadrepo.Lead
}

type Service struct {
	store Store
	cal   *businessday.Calendar
}

func New(store Store, cal *businessday.Calendar) *Service {
	return &Service{store: store, cal: cal}
}

// Stats summarizes the lead pool and every active agent's load today.
func (s *Service) Stats(ctx context.Context, a actor.Actor) (Stats, error) {
	if !a.CanDistribute() {
		return Stats{}, apperr.Forbidden("only managers can view assignment stats")
	}

	today := s.cal.Today()
	counts, err := s.store.LeadCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	agents, err := s.store.ListActiveAgents(ctx)
	if err != nil {
		return Stats{}, err
	}
	perAgent, err := s.store.CountsForDate(ctx, today)
	if err != nil {
		return Stats{}, err
	}

	out := Stats{
		Date:            today.Format(time.DateOnly),
		TotalLeads:      counts.Total,
		UnassignedLeads: counts.Unassigned,
		ActiveAgents:    len(agents),
		Agents:          make([]AgentLoad, 0, len(agents)),
	}
	for _, n := range perAgent {
		out.AssignedToday += n
	}
	for _, agent := range agents {
		n := perAgent[agent.ID]
		out.Agents = append(out.Agents, AgentLoad{
			AgentID:       agent.ID,
			Name:          agent.Name,
			AssignedToday: n,
			DailyLimit:    agent.DailyLeadLimit,
			Remaining:     max(agent.DailyLeadLimit-n, 0),
		})
	}
	return out, nil
}

// TodayLeads lists agentID's active assignments for today. Agents may only
// list their own.
func (s *Service) TodayLeads(ctx context.Context, a actor.Actor, agentID uuid.UUID) ([]AgentLead, error) {
	if agentID != a.ID && !a.CanDistribute() {
		return nil, apperr.Forbidden("agents can only view their own leads")
	}

	assignments, err := s.store.ListForAgentOnDate(ctx, agentID, s.cal.Today())
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(assignments))
	for i, as := range assignments {
		ids[i] = as.LeadID
	}
	leads, err := s.store.LeadsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]leadrepo.Lead, len(leads))
	for _, l := range leads {
		byID[l.ID] = l
	}

	out := make([]AgentLead, 0, len(assignments))
	for _, as := range assignments {
		lead, ok := byID[as.LeadID]
		if !ok {
			continue
		}
		out = append(out, AgentLead{Assignment: as, Lead: lead})
	}
	return out, nil
}
