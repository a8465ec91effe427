// Package service converts worked leads into orders and pushes them to the
// main site.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	assignrepo "telesales_backend/internal/assignments/repository"
	commissionrepo "telesales_backend/internal/commissions/repository"
	commissionsvc "telesales_backend/internal/commissions/service"
	"telesales_backend/internal/events"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/metrics"
	"telesales_backend/internal/orders/repository"
	"telesales_backend/internal/orders/storefront"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/refcode"
	"telesales_backend/platform/apperr"
	"telesales_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	orderPrefix   = "ORD"
	OwnPageSize   = 50
	integration   = "storefront"
	SyncSweepName = "storefront-sync"
)

// Tx is the store as seen inside the conversion transaction.
type Tx interface {
	commissionsvc.Tx
	LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	SetLeadStatus(ctx context.Context, id uuid.UUID, status string) error
	ActiveAssignment(ctx context.Context, leadID uuid.UUID) (*assignrepo.Assignment, error)
	SetAssignmentStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error
	InsertOrder(ctx context.Context, p repository.InsertParams) (repository.Order, error)
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	GetOrder(ctx context.Context, id uuid.UUID) (repository.Order, error)
	GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ListForUser(ctx context.Context, p repository.ListParams) ([]repository.Order, int, error)
	RecordSync(ctx context.Context, id uuid.UUID, synced bool, at time.Time, response string) error
	ListUnsynced(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type repoStore struct {
	*repository.Repository
}

// NewStore adapts the order repository to Store.
func NewStore(repo *repository.Repository) Store {
	return repoStore{Repository: repo}
}

func (s repoStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.Repository.InTx(ctx, func(r *repository.Repository) error {
		return fn(r)
	})
}

// CommissionRecorder writes the commission for a new order in the same transaction.
type CommissionRecorder interface {
	OnOrderConverted(ctx context.Context, tx commissionsvc.Tx, order commissionsvc.ConvertedOrder) (commissionrepo.Commission, error)
}

// SyncEnqueuer schedules a background push of an order to the main site.
type SyncEnqueuer interface {
	EnqueueOrderSync(ctx context.Context, orderID uuid.UUID) error
}

type Storefront interface {
	CreateOrder(ctx context.Context, order storefront.Order) (storefront.Response, error)
}

type PhoneRevealer interface {
	RevealPhone(ctx context.Context, lead leadrepo.Lead) string
}

type Service struct {
	store       Store
	commissions CommissionRecorder
	bus         events.Publisher
	log         *logger.Logger
	now         func() time.Time

	queue      SyncEnqueuer
	storefront Storefront
	phones     PhoneRevealer
}

func New(store Store, commissions CommissionRecorder, bus events.Publisher, log *logger.Logger) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, commissions: commissions, bus: bus, log: log, now: time.Now}
}

// SetSyncEnqueuer makes every conversion schedule a storefront push.
func (s *Service) SetSyncEnqueuer(q SyncEnqueuer) {
	s.queue = q
}

// SetStorefront enables SyncOrder. Without it syncing is a no-op.
func (s *Service) SetStorefront(client Storefront, phones PhoneRevealer) {
	s.storefront = client
	s.phones = phones
}

type ConvertInput struct {
	LeadID          uuid.UUID
	Products        []repository.Product
	CustomerAddress string
	PaymentMethod   string
	OfferApplied    string
	Notes           string
}

func (in ConvertInput) validate() error {
	if len(in.Products) == 0 {
		return apperr.Validation("at least one product is required")
	}
	for _, p := range in.Products {
		if strings.TrimSpace(p.Name) == "" {
			return apperr.Validation("product name is required")
		}
		if p.Quantity < 1 {
			return apperr.Validation("product quantity must be at least 1")
		}
		if p.Price.IsNegative() {
			return apperr.Validation("product price cannot be negative")
		}
	}
	if strings.TrimSpace(in.CustomerAddress) == "" {
		return apperr.Validation("customer address is required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return apperr.Validation("payment method is required")
	}
	return nil
}

// Total is the sum of quantity times price over products.
func Total(products []repository.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return total.Round(2)
}

// ConvertToOrder turns the caller's assigned lead into an order. The order,
// the lead's converted status, the completed assignment and the pending
// commission commit together.
func (s *Service) ConvertToOrder(ctx context.Context, a actor.Actor, in ConvertInput) (repository.Order, commissionrepo.Commission, error) {
	if err := in.validate(); err != nil {
		return repository.Order{}, commissionrepo.Commission{}, err
	}

	now := s.now().UTC()
	total := Total(in.Products)
	var (
		order      repository.Order
		commission commissionrepo.Commission
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		lead, err := tx.LockLead(ctx, in.LeadID)
		if errors.Is(err, leadrepo.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return err
		}
		if lead.AssignedTo == nil || *lead.AssignedTo != a.ID {
			return apperr.Forbidden("lead is not assigned to you")
		}
		if lead.Status == domain.StatusConverted {
			return apperr.Conflict("lead is already converted").WithCode(apperr.CodeAlreadyConverted)
		}

		order, err = tx.InsertOrder(ctx, repository.InsertParams{
			OrderNumber:     refcode.New(orderPrefix, now),
			LeadID:          lead.ID,
			UserID:          a.ID,
			Products:        in.Products,
			TotalAmount:     total,
			CustomerAddress: strings.TrimSpace(in.CustomerAddress),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			OfferApplied:    optional(in.OfferApplied),
			Notes:           optional(in.Notes),
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}
		if err := tx.SetLeadStatus(ctx, lead.ID, domain.StatusConverted); err != nil {
			return err
		}

		active, err := tx.ActiveAssignment(ctx, lead.ID)
		if err != nil {
			return err
		}
		if active != nil && active.Status != assignrepo.StatusCompleted {
			if err := tx.SetAssignmentStatus(ctx, active.ID, assignrepo.StatusCompleted, &now); err != nil {
				return err
			}
		}

		commission, err = s.commissions.OnOrderConverted(ctx, tx, commissionsvc.ConvertedOrder{
			ID:          order.ID,
			AgentID:     a.ID,
			TotalAmount: order.TotalAmount,
			CreatedAt:   order.CreatedAt,
		})
		return err
	})
	if err != nil {
		return repository.Order{}, commissionrepo.Commission{}, err
	}

	metrics.RecordOrderConverted()
	s.bus.Publish(ctx, events.OrderConverted{
		BaseEvent:        events.NewBaseEvent(),
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		LeadID:           order.LeadID,
		AgentID:          a.ID,
		TotalAmount:      order.TotalAmount,
		CommissionAmount: commission.CommissionAmount,
	})
	if s.queue != nil {
		if err := s.queue.EnqueueOrderSync(ctx, order.ID); err != nil {
			s.log.WithContext(ctx).Error("failed to enqueue storefront sync", "error", err, "orderId", order.ID)
		}
	}
	return order, commission, nil
}

// ListOwn pages through the caller's orders, newest first. from and to are
// inclusive dates.
func (s *Service) ListOwn(ctx context.Context, a actor.Actor, from, to *time.Time, page int) ([]repository.Order, int, error) {
	if a.ID == uuid.Nil {
		return nil, 0, apperr.Forbidden("orders belong to a user")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, 0, apperr.Validation("to must not be before from")
	}
	if page < 1 {
		page = 1
	}
	return s.store.ListForUser(ctx, repository.ListParams{
		UserID:   a.ID,
		From:     from,
		To:       to,
		Page:     page,
		PageSize: OwnPageSize,
	})
}

type syncFailure struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// SyncOrder pushes one order to the main site and records the reply. Orders
// already accepted are skipped. Only transport failures are returned, so a
// rejected order is not retried.
func (s *Service) SyncOrder(ctx context.Context, orderID uuid.UUID) error {
	if s.storefront == nil {
		return nil
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("order not found")
	}
	if err != nil {
		return err
	}
	if order.SyncedToMainSite {
		return nil
	}
	lead, err := s.store.GetLead(ctx, order.LeadID)
	if err != nil {
		return err
	}

	resp, err := s.storefront.CreateOrder(ctx, toStorefront(order, lead, s.phones.RevealPhone(ctx, lead)))
	if err != nil {
		metrics.RecordIntegrationError(integration)
		return err
	}

	record := string(resp.Body)
	if !resp.OK() {
		metrics.RecordIntegrationError(integration)
		encoded, _ := json.Marshal(syncFailure{Error: string(resp.Body), Status: resp.StatusCode})
		record = string(encoded)
	}
	return s.store.RecordSync(ctx, order.ID, resp.OK(), s.now().UTC(), record)
}

// SyncPending pushes orders whose sync never ran, for example because the
// queue was unavailable at conversion time.
func (s *Service) SyncPending(ctx context.Context, limit int) (int, error) {
	if s.storefront == nil {
		return 0, nil
	}
	started := time.Now()

	ids, err := s.store.ListUnsynced(ctx, limit)
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, id := range ids {
		if err := s.SyncOrder(ctx, id); err != nil {
			s.log.BatchItemFailed(SyncSweepName, id.String(), err)
			continue
		}
		synced++
	}

	metrics.ObserveJob(SyncSweepName, started)
	s.log.JobRun(SyncSweepName, started, "attempted", len(ids), "synced", synced)
	return synced, nil
}

func toStorefront(order repository.Order, lead leadrepo.Lead, phone string) storefront.Order {
	products := make([]storefront.Product, 0, len(order.Products))
	for _, p := range order.Products {
		products = append(products, storefront.Product{Name: p.Name, Quantity: p.Quantity, Price: p.Price})
	}
	return storefront.Order{
		OrderNumber:     order.OrderNumber,
		CustomerName:    lead.Name,
		CustomerEmail:   lead.Email,
		CustomerPhone:   phone,
		CustomerAddress: order.CustomerAddress,
		Products:        products,
		TotalAmount:     order.TotalAmount,
		PaymentMethod:   order.PaymentMethod,
		OfferApplied:    order.OfferApplied,
		Notes:           order.Notes,
	}
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
