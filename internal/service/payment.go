package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/logger"
	"order-reconciliation/internal/model"
	"order-reconciliation/internal/repository"
)

// maxStaleRetries bounds how often a transaction is re-run after losing a
// compare-and-swap to a concurrent writer.
const maxStaleRetries = 3

var transactionTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type PaymentService interface {
	CreatePreorder(ctx context.Context, req *dto.PreorderRequest) error
	GetStatus(ctx context.Context, paymentCode string) (*dto.PaymentStatusResponse, error)
	// HandleWebhook applies a bank transaction to the pending payment named by its
	// description. Replays of an applied transaction succeed without side effects.
	HandleWebhook(ctx context.Context, txn *model.CassoTransaction) (*dto.WebhookResponse, error)
}

type PaymentOptions struct {
	// Location resolves bank transaction times sent without a zone.
	Location *time.Location
}

type paymentServiceImpl struct {
	db               *gorm.DB
	paymentRepo      repository.PendingPaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	publisher        EventPublisher
	opts             PaymentOptions
	now              func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	paymentRepo repository.PendingPaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
	publisher EventPublisher,
	opts PaymentOptions,
) PaymentService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &paymentServiceImpl{
		db:               db,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
		publisher:        publisher,
		opts:             opts,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *paymentServiceImpl) CreatePreorder(ctx context.Context, req *dto.PreorderRequest) error {
	code := strings.TrimSpace(req.PaymentCode)
	email := strings.TrimSpace(req.BuyerEmail)
	// amount 0 is rejected together with missing fields
	if code == "" || email == "" || req.Amount <= 0 || req.ExpiresAt.IsZero() {
		return newError(ErrInvalidInput, "Missing required fields")
	}

	_, err := s.paymentRepo.FindByCode(ctx, nil, code)
	if err == nil {
		return newError(ErrConflict, "paymentCode already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("find pending payment: %w", err)
	}

	err = s.paymentRepo.Create(ctx, &model.PendingPayment{
		PaymentCode: code,
		BuyerEmail:  email,
		Amount:      req.Amount,
		Status:      model.PaymentStatusPending,
		ExpiresAt:   req.ExpiresAt.UTC(),
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return newError(ErrConflict, "paymentCode already exists")
	}
	if err != nil {
		return fmt.Errorf("store pending payment: %w", err)
	}

	logger.FromContext(ctx).Info("preorder created",
		zap.String("payment_code", code),
		zap.Int64("amount", req.Amount),
		zap.Time("expires_at", req.ExpiresAt),
	)
	return nil
}

func (s *paymentServiceImpl) GetStatus(ctx context.Context, paymentCode string) (*dto.PaymentStatusResponse, error) {
	code := strings.TrimSpace(paymentCode)
	if code == "" {
		return nil, newError(ErrInvalidInput, "code is required")
	}

	payment, err := s.findPayment(ctx, nil, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if payment.Status == model.PaymentStatusPending && payment.EffectiveStatus(now) == model.PaymentStatusExpired {
		expired, err := s.paymentRepo.MarkExpired(ctx, nil, code)
		if err != nil {
			return nil, fmt.Errorf("expire pending payment: %w", err)
		}
		if expired {
			logger.FromContext(ctx).Info("pending payment expired", zap.String("payment_code", code))
		}

		// reload: a concurrent poll or webhook may have written first
		payment, err = s.findPayment(ctx, nil, code)
		if err != nil {
			return nil, err
		}
	}

	return statusResponse(payment, now), nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, txn *model.CassoTransaction) (*dto.WebhookResponse, error) {
	if txn == nil {
		return nil, newError(ErrInvalidInput, "Missing transaction data")
	}
	code := strings.TrimSpace(txn.Description)
	if code == "" {
		return nil, newError(ErrInvalidInput, "Missing transaction description")
	}

	if resp, err := s.replayed(ctx, code, txn); resp != nil || err != nil {
		return resp, err
	}

	for attempt := 0; attempt < maxStaleRetries; attempt++ {
		resp, err := s.reconcile(ctx, code, txn)
		if errors.Is(err, repository.ErrStaleRecord) {
			logger.FromContext(ctx).Debug("webhook lost race, retrying",
				zap.String("payment_code", code),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return resp, err
	}

	return nil, fmt.Errorf("reconcile payment %s: %w", code, repository.ErrStaleRecord)
}

// replayed answers redeliveries of an already recorded bank transaction without
// opening a transaction. It returns nil, nil for transactions not seen yet.
func (s *paymentServiceImpl) replayed(ctx context.Context, code string, txn *model.CassoTransaction) (*dto.WebhookResponse, error) {
	event, err := s.webhookEventRepo.FindByTxnID(ctx, txn.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find webhook event: %w", err)
	}

	if event.PaymentCode != code {
		return nil, newError(ErrConflict, "Transaction %d was already applied to another payment", txn.ID)
	}
	logger.FromContext(ctx).Debug("webhook redelivered",
		zap.String("payment_code", code),
		zap.Int64("casso_txn_id", txn.ID),
	)
	return &dto.WebhookResponse{Success: true, Message: "Already processed"}, nil
}

func (s *paymentServiceImpl) reconcile(ctx context.Context, code string, txn *model.CassoTransaction) (*dto.WebhookResponse, error) {
	var (
		resp    *dto.WebhookResponse
		outcome error
		paidAt  time.Time
	)
	now := s.now()

	// Rejections that must keep their writes (lazy expiry) are reported through
	// outcome so the transaction still commits.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.FindByCode(ctx, tx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = newError(ErrNotFound, "No matching paymentCode")
			return nil
		}
		if err != nil {
			return fmt.Errorf("find pending payment: %w", err)
		}

		switch payment.EffectiveStatus(now) {
		case model.PaymentStatusPaid, model.PaymentStatusConsumed:
			resp = &dto.WebhookResponse{Success: true, Message: "Already processed"}
			return nil
		case model.PaymentStatusExpired:
			if payment.Status == model.PaymentStatusPending {
				if _, err := s.paymentRepo.MarkExpired(ctx, tx, code); err != nil {
					return fmt.Errorf("expire pending payment: %w", err)
				}
			}
			outcome = newError(ErrConflict, "Payment code expired")
			return nil
		}

		if txn.Amount != payment.Amount {
			outcome = newError(ErrConflict, "Amount mismatch: expected %d, received %d", payment.Amount, txn.Amount)
			return nil
		}

		paidAt = parseTransactionTime(txn.TransactionDateTime, s.opts.Location, now)
		paid, err := s.paymentRepo.MarkPaid(ctx, tx, code, txn.ID, paidAt)
		if err != nil {
			return fmt.Errorf("mark payment paid: %w", err)
		}
		if !paid {
			return repository.ErrStaleRecord
		}

		err = s.webhookEventRepo.MarkProcessed(ctx, tx, &model.WebhookEvent{
			CassoTxnID:      txn.ID,
			PaymentCode:     code,
			Amount:          txn.Amount,
			TransactionTime: txn.TransactionDateTime,
			AccountNumber:   txn.AccountNumber,
			BankName:        txn.BankName,
			ProcessedAt:     now,
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newError(ErrConflict, "Transaction %d was already applied to another payment", txn.ID)
		}
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}

		resp = &dto.WebhookResponse{Success: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		logger.FromContext(ctx).Info("webhook rejected",
			zap.String("payment_code", code),
			zap.Int64("casso_txn_id", txn.ID),
			zap.String("reason", Message(outcome)),
		)
		return nil, outcome
	}

	if !paidAt.IsZero() {
		logger.FromContext(ctx).Info("payment confirmed",
			zap.String("payment_code", code),
			zap.Int64("casso_txn_id", txn.ID),
		)
		publish(ctx, s.publisher, OrderEvent{
			Type:        EventPaymentConfirmed,
			PaymentCode: code,
			Status:      string(model.PaymentStatusPaid),
			Amount:      txn.Amount,
			OccurredAt:  paidAt,
		})
	}

	return resp, nil
}

func (s *paymentServiceImpl) findPayment(ctx context.Context, tx *gorm.DB, code string) (*model.PendingPayment, error) {
	payment, err := s.paymentRepo.FindByCode(ctx, tx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Payment code not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find pending payment: %w", err)
	}
	return payment, nil
}

func statusResponse(payment *model.PendingPayment, now time.Time) *dto.PaymentStatusResponse {
	status := payment.EffectiveStatus(now)
	resp := &dto.PaymentStatusResponse{Status: status}
	switch status {
	case model.PaymentStatusPaid:
		resp.PaidAt = payment.PaidAt
		resp.CassoTxnID = payment.CassoTxnID
	case model.PaymentStatusConsumed:
		resp.OrderID = payment.ConsumedOrderID
	}
	return resp
}

// parseTransactionTime reads zone-less bank times in loc and falls back to
// fallback when the bank sends an unknown layout.
func parseTransactionTime(raw string, loc *time.Location, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range transactionTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
