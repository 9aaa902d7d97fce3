package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/kpay"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
	"github.com/nyeinchan/shwecart-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderSettler is the synchronous hook into the order state machine. It runs
// inside the settlement transaction so the payment write and the order write
// commit together or not at all.
type orderSettler interface {
	OnPaymentSettled(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error
}

type statusPoller interface {
	QueryStatus(ctx context.Context, transactionID string) (*kpay.StatusResult, error)
}

type webhookAuditor interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookAuditKey(transactionRef, status string) string
}

// Service is the payment reconciliation engine: the only writer of terminal
// payment states. Webhook pushes and client-initiated polls funnel into the
// same conditional settle, so whichever arrives first wins and the other
// observes a terminal row and no-ops.
type Service interface {
	HandleWebhook(ctx context.Context, event WebhookEvent) error
	CheckStatus(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	ReportClientTimeout(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListOrderPayments(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	settler orderSettler
	gateway statusPoller
	audit   webhookAuditor
	metrics *metrics.ReconciliationMetrics
	logg    *logger.Logger

	auditTTL time.Duration
}

// Config carries the optional collaborators for the reconciliation engine.
type Config struct {
	Audit    webhookAuditor
	Metrics  *metrics.ReconciliationMetrics
	Logger   *logger.Logger
	AuditTTL time.Duration
}

// NewService builds the reconciliation engine.
func NewService(repo Repository, tx txRunner, settler orderSettler, gateway statusPoller, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if settler == nil {
		return nil, fmt.Errorf("order settler required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway poller required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		settler:  settler,
		gateway:  gateway,
		audit:    cfg.Audit,
		metrics:  cfg.Metrics,
		logg:     cfg.Logger,
		auditTTL: cfg.AuditTTL,
	}, nil
}

// HandleWebhook ingests one gateway callback. Malformed payloads are the only
// error the caller sees; everything else resolves to a 200-worthy nil so the
// gateway never retry-storms us over events we have already absorbed.
func (s *service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	ref := strings.TrimSpace(event.TransactionRef)
	if ref == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}
	target, err := kpay.MapStatus(event.Status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unrecognized gateway status")
	}

	s.recordAudit(ctx, ref, event.Status)

	payment, err := s.repo.FindByTransactionID(ctx, ref)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Dropped, not retried: retry policy belongs to the gateway.
			s.incEvent(outcomeUnknownTxn)
			s.warn(ctx, ref, "webhook for unknown transaction dropped")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by transaction")
	}

	if !target.IsTerminal() {
		s.incEvent(outcomeAdvisory)
		return nil
	}
	return s.settle(ctx, payment, target, providerReason(event.Status))
}

// CheckStatus polls the gateway for the authoritative state of a payment and
// applies any terminal result through the same settle path a webhook uses.
func (s *service) CheckStatus(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status.IsTerminal() {
		return payment, nil
	}
	if payment.KPayTransactionID == nil {
		return payment, nil
	}

	result, err := s.gateway.QueryStatus(ctx, *payment.KPayTransactionID)
	if err != nil {
		// Gateway unreachable: no local change, caller may retry.
		return nil, err
	}
	target, err := kpay.MapStatus(result.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway returned unrecognized status")
	}
	if !target.IsTerminal() {
		s.incEvent(outcomePollPending)
		return payment, nil
	}
	if err := s.settle(ctx, payment, target, providerReason(result.Status)); err != nil {
		return nil, err
	}
	return s.GetPayment(ctx, paymentID)
}

// ReportClientTimeout records the advisory timeout flag and returns the
// current authoritative state. The flag never blocks a later settlement; a
// webhook arriving afterwards still completes the payment (the flag stays
// set for audit).
func (s *service) ReportClientTimeout(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timeout reason required")
	}
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkClientTimeout(ctx, payment.ID, reason); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record client timeout")
	}

	// Best-effort poll so the client leaves with the freshest answer; an
	// unreachable gateway degrades to the stored state.
	if !payment.Status.IsTerminal() && payment.KPayTransactionID != nil {
		if refreshed, pollErr := s.CheckStatus(ctx, paymentID); pollErr == nil {
			return refreshed, nil
		}
		s.warn(ctx, deref(payment.KPayTransactionID), "status poll after client timeout failed")
	}
	return s.GetPayment(ctx, paymentID)
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) ListOrderPayments(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	all, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order payments")
	}
	return all, nil
}

// settle moves one payment to a terminal status exactly once. The conditional
// update and the order-state hook share a transaction: a payment can never
// commit as completed while its order is left behind.
func (s *service) settle(ctx context.Context, payment *models.Payment, target enums.PaymentStatus, failureReason *string) error {
	if payment.Status.IsTerminal() {
		s.incEvent(outcomeDuplicate)
		return nil
	}

	applied := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{"status": target}
		if target == enums.PaymentStatusCompleted {
			updates["completed_at"] = time.Now().UTC()
		}
		if failureReason != nil {
			updates["failure_reason"] = *failureReason
		}

		rows, err := repo.SettleIfPending(ctx, payment.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
		}
		if rows == 0 {
			// Lost the race: the other writer already settled this row.
			return nil
		}
		applied = true
		return s.settler.OnPaymentSettled(ctx, tx, payment.OrderID, target)
	})
	if err != nil {
		return err
	}

	if applied {
		s.incEvent(outcomeApplied)
	} else {
		s.incEvent(outcomeDuplicate)
		s.incConflict()
	}
	return nil
}

func (s *service) recordAudit(ctx context.Context, ref, status string) {
	if s.audit == nil {
		return
	}
	key := s.audit.WebhookAuditKey(ref, strings.ToLower(strings.TrimSpace(status)))
	if _, err := s.audit.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), s.auditTTL); err != nil {
		s.warn(ctx, ref, "webhook audit write failed")
	}
}

func (s *service) incEvent(outcome string) {
	if s.metrics != nil {
		s.metrics.IncEvent(outcome)
	}
}

func (s *service) incConflict() {
	if s.metrics != nil {
		s.metrics.IncConflict()
	}
}

func (s *service) warn(ctx context.Context, ref, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "transaction_ref", ref), msg)
}

func providerReason(providerStatus string) *string {
	status := strings.ToUpper(strings.TrimSpace(providerStatus))
	switch status {
	case "FAILED", "DECLINED", "EXPIRED", "CANCELLED":
		reason := "gateway reported " + strings.ToLower(status)
		return &reason
	default:
		return nil
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
