// Package distribution hands unassigned leads to agents. Automatic runs are a
// capacity-aware round-robin; manual assignment lets a manager override it.
package distribution

import (
	"context"
	"errors"
	"time"

	"telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/events"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/metrics"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/apperr"
	"telesales_backend/platform/logger"
	"telesales_backend/platform/runlock"

	"github.com/google/uuid"
)

// RunName is the run lock held while auto-distributing.
const RunName = "distribute"

// ItemError reports why one lead was not assigned.
type ItemError struct {
	LeadID uuid.UUID `json:"leadId"`
	Code   string    `json:"code,omitempty"`
	Reason string    `json:"reason"`
}

// Result summarizes a distribution or manual assignment.
type Result struct {
	Assigned     int         `json:"assigned"`
	SkippedLeads []uuid.UUID `json:"skippedLeads"`
	Failed       []ItemError `json:"failed"`
}

func newResult() Result {
	return Result{SkippedLeads: []uuid.UUID{}, Failed: []ItemError{}}
}

var (
	errAgentFull       = errors.New("agent at daily capacity")
	errLeadUnavailable = errors.New("lead is no longer waiting for distribution")
)

type Service struct {
	store  Store
	cal    *businessday.Calendar
	locker *runlock.Locker
	bus    events.Publisher
	log    *logger.Logger
}

func New(store Store, cal *businessday.Calendar, locker *runlock.Locker, bus events.Publisher, log *logger.Logger) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, cal: cal, locker: locker, bus: bus, log: log}
}

// AutoDistribute assigns every waiting lead to the next agent in id order
// with room left today. Leads no agent can take are reported as skipped and
// stay unassigned. Each assignment commits on its own.
func (s *Service) AutoDistribute(ctx context.Context, a actor.Actor) (Result, error) {
	if !a.CanDistribute() {
		return Result{}, apperr.Forbidden("only managers can distribute leads")
	}

	result := newResult()
	err := s.locker.Run(ctx, RunName, func(ctx context.Context) error {
		var err error
		result, err = s.distribute(ctx)
		return err
	})
	if errors.Is(err, runlock.ErrBusy) {
		return Result{}, apperr.Conflict("a distribution run is already in progress").WithCode(apperr.CodeRunInProgress)
	}
	return result, err
}

func (s *Service) distribute(ctx context.Context) (Result, error) {
	started := time.Now()
	result := newResult()
	log := s.log.WithContext(ctx)
	today := s.cal.Today()

	agents, err := s.store.ListActiveAgents(ctx)
	if err != nil {
		return result, err
	}
	counts, err := s.store.CountsForDate(ctx, today)
	if err != nil {
		return result, err
	}
	leadIDs, err := s.store.ListUnassignedLeadIDs(ctx)
	if err != nil {
		return result, err
	}

	cursor := 0
	for _, leadID := range leadIDs {
		winner, err := s.assignNext(ctx, leadID, agents, counts, cursor, today)
		switch {
		case errors.Is(err, errLeadUnavailable):
			result.Failed = append(result.Failed, ItemError{LeadID: leadID, Code: apperr.CodeAlreadyAssigned, Reason: err.Error()})
			log.BatchItemFailed("auto_distribute", leadID.String(), err)
			continue
		case err != nil:
			return result, err
		case winner < 0:
			result.SkippedLeads = append(result.SkippedLeads, leadID)
			continue
		}

		result.Assigned++
		cursor = (winner + 1) % len(agents)
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       leadID,
			AgentID:      agents[winner].ID,
			AssignedDate: today,
			Automatic:    true,
		})
	}

	metrics.RecordAssignments(true, result.Assigned)
	metrics.RecordSkipped(len(result.SkippedLeads))
	metrics.ObserveJob(RunName, started)
	log.JobRun(RunName, started,
		"agents", len(agents),
		"leads", len(leadIDs),
		"assigned", result.Assigned,
		"skipped", len(result.SkippedLeads),
		"failed", len(result.Failed),
	)
	return result, nil
}

// assignNext scans at most len(agents) agents starting at cursor and returns
// the index of the agent that took the lead, or -1 when all are full.
// counts is the run's cached view of today's load and is corrected whenever
// the locked recount disagrees.
func (s *Service) assignNext(ctx context.Context, leadID uuid.UUID, agents []repository.Agent, counts map[uuid.UUID]int, cursor int, today time.Time) (int, error) {
	for k := range agents {
		idx := (cursor + k) % len(agents)
		agent := agents[idx]
		if counts[agent.ID] >= agent.DailyLeadLimit {
			continue
		}

		fresh, err := s.tryAssign(ctx, leadID, agent.ID, today)
		switch {
		case errors.Is(err, errAgentFull):
			counts[agent.ID] = max(fresh, agent.DailyLeadLimit)
			continue
		case err != nil:
			return -1, err
		}
		counts[agent.ID] = fresh + 1
		return idx, nil
	}
	return -1, nil
}

// tryAssign gives the lead to agentID in one transaction. It returns the
// agent's locked count for today alongside errAgentFull when there is no room.
func (s *Service) tryAssign(ctx context.Context, leadID, agentID uuid.UUID, today time.Time) (int, error) {
	var count int
	err := s.store.InTx(ctx, func(tx Tx) error {
		lead, err := tx.LockLead(ctx, leadID)
		if errors.Is(err, leadrepo.ErrNotFound) {
			return errLeadUnavailable
		}
		if err != nil {
			return err
		}
		if lead.Status != domain.StatusNew || lead.AssignedTo != nil {
			return errLeadUnavailable
		}
		active, err := tx.ActiveAssignment(ctx, leadID)
		if err != nil {
			return err
		}
		if active != nil {
			return errLeadUnavailable
		}

		agent, err := tx.LockAgent(ctx, agentID)
		if err != nil {
			return err
		}
		count, err = tx.CountActiveForDate(ctx, agentID, today)
		if err != nil {
			return err
		}
		if !agent.IsActive || count >= agent.DailyLeadLimit {
			return errAgentFull
		}

		if _, err := tx.InsertAssignment(ctx, repository.CreateParams{
			LeadID:         leadID,
			UserID:         agentID,
			AssignedDate:   today,
			IsAutoAssigned: true,
		}); err != nil {
			return err
		}
		return tx.SetLeadAssignment(ctx, leadID, &agentID, domain.StatusAssigned)
	})
	return count, err
}

// ManualAssign gives each lead to agentID regardless of capacity. A pending
// assignment held by another agent is retired first; leads already with the
// agent or being worked by someone else are reported per lead.
func (s *Service) ManualAssign(ctx context.Context, leadIDs []uuid.UUID, agentID uuid.UUID, a actor.Actor) (Result, error) {
	if !a.CanDistribute() {
		return Result{}, apperr.Forbidden("only managers can assign leads")
	}

	agent, err := s.store.GetAgent(ctx, agentID)
	if errors.Is(err, repository.ErrAgentNotFound) {
		return Result{}, apperr.NotFound("agent not found")
	}
	if err != nil {
		return Result{}, err
	}
	if !agent.IsActive {
		return Result{}, apperr.Validation("agent is not active")
	}

	result := newResult()
	log := s.log.WithContext(ctx)
	today := s.cal.Today()

	for _, leadID := range leadIDs {
		err := s.assignManually(ctx, leadID, agentID, today, a.UserID())
		if err != nil {
			var domainErr *apperr.Error
			if !errors.As(err, &domainErr) {
				return result, err
			}
			result.Failed = append(result.Failed, ItemError{LeadID: leadID, Code: domainErr.Code, Reason: domainErr.Message})
			log.BatchItemFailed("manual_assign", leadID.String(), err)
			continue
		}

		result.Assigned++
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       leadID,
			AgentID:      agentID,
			AssignedDate: today,
			Automatic:    false,
			AssignedBy:   a.UserID(),
		})
	}

	metrics.RecordAssignments(false, result.Assigned)
	return result, nil
}

func (s *Service) assignManually(ctx context.Context, leadID, agentID uuid.UUID, today time.Time, assignedBy *uuid.UUID) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		lead, err := tx.LockLead(ctx, leadID)
		if errors.Is(err, leadrepo.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return err
		}
		if !domain.IsAssignable(lead.Status) {
			return apperr.Conflict("lead status " + lead.Status + " cannot be assigned").WithCode(apperr.CodeInvalidTransition)
		}

		active, err := tx.ActiveAssignment(ctx, leadID)
		if err != nil {
			return err
		}
		if active != nil {
			switch {
			case active.UserID == agentID:
				return apperr.Conflict("lead is already assigned to this agent").WithCode(apperr.CodeAlreadyAssigned)
			case active.Status != repository.StatusPending:
				return apperr.Conflict("lead is being worked by another agent").WithCode(apperr.CodeInvalidTransition)
			}
			if err := tx.SetAssignmentStatus(ctx, active.ID, repository.StatusRecycled, nil); err != nil {
				return err
			}
		}

		if _, err := tx.LockAgent(ctx, agentID); err != nil {
			return err
		}
		if _, err := tx.InsertAssignment(ctx, repository.CreateParams{
			LeadID:         leadID,
			UserID:         agentID,
			AssignedDate:   today,
			IsAutoAssigned: false,
			AssignedBy:     assignedBy,
		}); err != nil {
			return err
		}
		return tx.SetLeadAssignment(ctx, leadID, &agentID, domain.StatusAssigned)
	})
}
