package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/pkg/timeutil"
)

const attemptColumns = `id, order_id, amount, currency, status, transaction_id, return_code, error_message, created_at, updated_at`

const upsertPendingAttempt = `
INSERT INTO payment_attempts (id, order_id, amount, currency, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', $5, $5)
ON CONFLICT (order_id) DO UPDATE SET
    amount         = EXCLUDED.amount,
    currency       = EXCLUDED.currency,
    status         = 'pending',
    transaction_id = NULL,
    return_code    = NULL,
    error_message  = NULL,
    updated_at     = EXCLUDED.updated_at
WHERE payment_attempts.status <> 'approved'
RETURNING ` + attemptColumns

const settleAttempt = `
UPDATE payment_attempts SET
    status         = $2,
    transaction_id = $3,
    return_code    = $4,
    error_message  = $5,
    updated_at     = now()
WHERE order_id = $1 AND status <> 'approved'
RETURNING ` + attemptColumns

const insertCallback = `
INSERT INTO payment_callbacks (id, order_id, status, reject_reason, return_code, message, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectAttemptByOrderID = `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE order_id = $1`

// PaymentAttemptRepository implements ports.PaymentAttemptRepository on PostgreSQL
type PaymentAttemptRepository struct {
	db           *LedgerDB
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewPaymentAttemptRepository creates the ledger repository
func NewPaymentAttemptRepository(db *LedgerDB, queryTimeout time.Duration, logger *zap.Logger) ports.PaymentAttemptRepository {
	return &PaymentAttemptRepository{
		db:           db,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (r *PaymentAttemptRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// CreatePending inserts or resets the attempt for attempt.OrderID and fills
// in the stored id and timestamps. An approved order cannot be reopened.
func (r *PaymentAttemptRepository) CreatePending(ctx context.Context, attempt *domain.PaymentAttempt) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	id, err := uuid.Parse(attempt.ID)
	if err != nil {
		return fmt.Errorf("invalid attempt ID: %w", err)
	}
	amount, err := decimalToNumeric(attempt.Amount)
	if err != nil {
		return err
	}

	row := r.db.Pool().QueryRow(ctx, upsertPendingAttempt, id, attempt.OrderID, amount, attempt.Currency, timeutil.Now())
	stored, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewValidationError(domain.FieldOrderID, "order is already approved")
	}
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create pending attempt", err)
	}

	*attempt = *stored
	return nil
}

// RecordResult settles the attempt and appends the callback audit row in one
// transaction. An approved attempt is final: later callbacks for the order are
// audited and the approved row is returned unchanged.
func (r *PaymentAttemptRepository) RecordResult(ctx context.Context, result domain.VerificationResult) (*domain.PaymentAttempt, error) {
	status, ok := domain.AttemptStatusFor(result)
	if !ok || result.Order == nil {
		return nil, domain.NewValidationError("status", "only trusted callbacks settle an attempt")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var settled *domain.PaymentAttempt
	err := r.db.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, settleAttempt,
			result.Order.OrderID,
			string(status),
			nullText(result.Order.TransactionID),
			nullText(result.ErrorCode),
			nullText(result.ErrorMessage),
		)
		attempt, err := scanAttempt(row)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if attempt, err = r.approvedAttempt(ctx, tx, result.Order.OrderID); err != nil {
				return err
			}
		case err != nil:
			return domain.WrapError(domain.ErrorCodeDatabaseError, "settle attempt", err)
		}
		settled = attempt

		return r.insertCallback(ctx, tx, domain.NewCallbackRecord(result))
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Payment attempt settled",
		zap.String("order_id", settled.OrderID),
		zap.String("status", string(settled.Status)),
	)
	return settled, nil
}

// approvedAttempt loads the row that settleAttempt skipped. Only an approved
// row is skipped, so a missing row means the order is unknown.
func (r *PaymentAttemptRepository) approvedAttempt(ctx context.Context, tx pgx.Tx, orderID string) (*domain.PaymentAttempt, error) {
	attempt, err := scanAttempt(tx.QueryRow(ctx, selectAttemptByOrderID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "settle attempt", err)
	}

	r.logger.Warn("Callback for approved attempt left it unchanged",
		zap.String("order_id", orderID),
		zap.String("status", string(attempt.Status)),
	)
	return attempt, nil
}

// RecordCallback appends an audit row
func (r *PaymentAttemptRepository) RecordCallback(ctx context.Context, record *domain.CallbackRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.insertCallback(ctx, r.db.Pool(), record)
}

// queryExecer is satisfied by both the pool and a transaction
type queryExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *PaymentAttemptRepository) insertCallback(ctx context.Context, q queryExecer, record *domain.CallbackRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = timeutil.Now()
	}
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid callback ID: %w", err)
	}

	_, err = q.Exec(ctx, insertCallback,
		id,
		nullText(record.OrderID),
		string(record.Status),
		nullText(string(record.RejectReason)),
		nullText(record.ReturnCode),
		record.Message,
		record.ReceivedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "record callback", err)
	}
	return nil
}

// GetByOrderID returns the attempt for orderID
func (r *PaymentAttemptRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	attempt, err := scanAttempt(r.db.Pool().QueryRow(ctx, selectAttemptByOrderID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get attempt", err)
	}
	return attempt, nil
}

func scanAttempt(row pgx.Row) (*domain.PaymentAttempt, error) {
	var (
		id            pgtype.UUID
		amount        pgtype.Numeric
		status        string
		transactionID pgtype.Text
		returnCode    pgtype.Text
		errorMessage  pgtype.Text
		a             domain.PaymentAttempt
	)
	err := row.Scan(&id, &a.OrderID, &amount, &a.Currency, &status,
		&transactionID, &returnCode, &errorMessage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.ID = uuid.UUID(id.Bytes).String()
	a.Status = domain.AttemptStatus(status)
	a.TransactionID = textPtr(transactionID)
	a.ReturnCode = textPtr(returnCode)
	a.ErrorMessage = textPtr(errorMessage)
	if a.Amount, err = pgNumericToDecimal(amount); err != nil {
		return nil, err
	}
	return &a, nil
}
