package assignments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderAdvancer is the slice of the order state machine dispatch needs.
type orderAdvancer interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkAssigned(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, riderID uuid.UUID) error
	MarkShipped(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type riderDirectory interface {
	GetRider(ctx context.Context, id uuid.UUID) (*models.Rider, error)
}

type leaderboardCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service owns assignment dispatch and rider settlement. A pending
// assignment with no response has no automatic expiry: resolving it is a
// dispatcher decision, by reassigning or cancelling the order.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.OrderAssignment, error)
	Respond(ctx context.Context, input RespondInput) (*models.OrderAssignment, error)
	Complete(ctx context.Context, assignmentID uuid.UUID, riderID uuid.UUID) (*models.OrderAssignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*models.OrderAssignment, error)
	ListOrderHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderAssignment, error)
	Earnings(ctx context.Context, riderID uuid.UUID) (*EarningsSummary, error)
	Leaderboard(ctx context.Context) ([]RiderCompletionCount, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	orders orderAdvancer
	riders riderDirectory
	cache  leaderboardCache
	cfg    config.EarningsConfig
}

// NewService builds the assignment engine. The cache is optional; without it
// every leaderboard read recomputes from the store.
func NewService(repo Repository, tx txRunner, orders orderAdvancer, riders riderDirectory, cache leaderboardCache, cfg config.EarningsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order advancer required")
	}
	if riders == nil {
		return nil, fmt.Errorf("rider directory required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		orders: orders,
		riders: riders,
		cache:  cache,
		cfg:    cfg,
	}, nil
}

// Create offers an order to a rider. If another assignment is still live for
// the order it is first closed as reassigned, so the one-live-row invariant
// holds and history stays append-only.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.OrderAssignment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.RiderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	if input.Fee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment fee cannot be negative")
	}

	order, err := s.orders.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case enums.OrderStatusProcessing, enums.OrderStatusAssigned:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in %s cannot be dispatched", order.Status))
	}

	rider, err := s.riders.GetRider(ctx, input.RiderID)
	if err != nil {
		return nil, err
	}
	if rider.Status != enums.RiderStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rider is inactive")
	}

	var created *models.OrderAssignment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		live, err := repo.FindLiveByOrder(ctx, input.OrderID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load live assignment")
		}
		if live != nil {
			rows, err := repo.UpdateStatusIf(ctx, live.ID,
				[]enums.AssignmentStatus{enums.AssignmentStatusPending, enums.AssignmentStatusAccepted},
				map[string]any{"status": enums.AssignmentStatusReassigned})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close live assignment")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "assignment changed concurrently")
			}
		}

		assignment := &models.OrderAssignment{
			OrderID:     input.OrderID,
			RiderID:     input.RiderID,
			Status:      enums.AssignmentStatusPending,
			Fee:         input.Fee,
			DeliveryFee: order.DeliveryFee,
			Notes:       input.Notes,
			AssignedAt:  time.Now().UTC(),
		}
		created, err = repo.Create(ctx, assignment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}

		return s.orders.MarkAssigned(ctx, tx, input.OrderID, input.RiderID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Respond applies a rider's accept or reject. A handle that was reassigned
// away is rejected as stale rather than silently succeeding.
func (s *service) Respond(ctx context.Context, input RespondInput) (*models.OrderAssignment, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	assignment, err := s.GetAssignment(ctx, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	if input.RiderID != uuid.Nil && assignment.RiderID != input.RiderID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another rider")
	}

	target := enums.AssignmentStatusRejected
	if input.Accept {
		target = enums.AssignmentStatusAccepted
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		rows, err := repo.UpdateStatusIf(ctx, assignment.ID,
			[]enums.AssignmentStatus{enums.AssignmentStatusPending},
			map[string]any{"status": target, "responded_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "respond to assignment")
		}
		if rows == 0 {
			return s.respondMiss(ctx, repo, assignment.ID)
		}

		if input.Accept {
			return s.orders.MarkShipped(ctx, tx, assignment.OrderID)
		}
		// A rejection leaves the order assigned; dispatch picks another
		// rider with a fresh Create call.
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetAssignment(ctx, input.AssignmentID)
}

// Complete settles an accepted assignment and drives the order to delivered.
func (s *service) Complete(ctx context.Context, assignmentID uuid.UUID, riderID uuid.UUID) (*models.OrderAssignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	assignment, err := s.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if riderID != uuid.Nil && assignment.RiderID != riderID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another rider")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.UpdateStatusIf(ctx, assignment.ID,
			[]enums.AssignmentStatus{enums.AssignmentStatusAccepted},
			map[string]any{"status": enums.AssignmentStatusCompleted, "completed_at": time.Now().UTC()})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete assignment")
		}
		if rows == 0 {
			current, err := repo.Find(ctx, assignment.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload assignment")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("assignment in %s cannot be completed", current.Status))
		}

		return s.orders.MarkDelivered(ctx, tx, assignment.OrderID)
	})
	if err != nil {
		return nil, err
	}

	// A completion changes the standings; drop the cached snapshot so the
	// next leaderboard read sees it.
	if s.cache != nil {
		_ = s.cache.Del(ctx, s.cache.CacheKey("rider_leaderboard"))
	}

	return s.GetAssignment(ctx, assignmentID)
}

func (s *service) GetAssignment(ctx context.Context, id uuid.UUID) (*models.OrderAssignment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	assignment, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	return assignment, nil
}

func (s *service) ListOrderHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderAssignment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	all, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order assignments")
	}
	return all, nil
}

// Earnings recomputes the trailing-window total from completed assignments.
// Each completed row contributes max(0, fee + delivery fee).
func (s *service) Earnings(ctx context.Context, riderID uuid.UUID) (*EarningsSummary, error) {
	if riderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	if _, err := s.riders.GetRider(ctx, riderID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	since := now.Add(-s.cfg.Window)
	completed, err := s.repo.CompletedInWindow(ctx, riderID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed assignments")
	}

	total := decimal.Zero
	for _, assignment := range completed {
		contribution := assignment.Fee.Add(assignment.DeliveryFee)
		if contribution.IsNegative() {
			contribution = decimal.Zero
		}
		total = total.Add(contribution)
	}

	return &EarningsSummary{
		RiderID:     riderID,
		WindowStart: since,
		WindowEnd:   now,
		Completed:   len(completed),
		Total:       total,
	}, nil
}

// Leaderboard ranks riders by completed deliveries in the trailing window,
// served through a short-TTL read-through cache. Ties come back in store
// iteration order; the tie-break is undefined and left that way on purpose.
func (s *service) Leaderboard(ctx context.Context) ([]RiderCompletionCount, error) {
	key := ""
	if s.cache != nil {
		key = s.cache.CacheKey("rider_leaderboard")
		// Cache misses and cache trouble both fall through to the store.
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var counts []RiderCompletionCount
			if jsonErr := json.Unmarshal([]byte(cached), &counts); jsonErr == nil {
				return counts, nil
			}
		}
	}

	since := time.Now().UTC().Add(-s.cfg.Window)
	counts, err := s.repo.CompletedCountsSince(ctx, since, s.cfg.LeaderboardLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute leaderboard")
	}

	if s.cache != nil {
		if payload, err := json.Marshal(counts); err == nil {
			_ = s.cache.Set(ctx, key, string(payload), s.cfg.LeaderboardTTL)
		}
	}
	return counts, nil
}

// respondMiss explains a conditional-update miss on respond: a reassigned
// row means the handle is stale, anything else is an ordinary invalid
// transition.
func (s *service) respondMiss(ctx context.Context, repo Repository, id uuid.UUID) error {
	current, err := repo.Find(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload assignment")
	}
	if current.Status == enums.AssignmentStatusReassigned {
		return pkgerrors.New(pkgerrors.CodeNotFound, "assignment is stale: order was reassigned")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("assignment in %s cannot be answered", current.Status))
}
