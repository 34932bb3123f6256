package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
)

// SavePaymentRequest records a newly created payment with outcome
// "processing". Saving the same collect request id again overwrites it.
func (s *SQLiteStorage) SavePaymentRequest(ctx context.Context, req *model.PaymentRequest) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePaymentRequest(req); err != nil {
		return err
	}

	created := req.Timestamp.UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO payment_requests (
			collect_request_id, school_id, amount,
			student_name, student_id, student_email,
			payment_url, created_at, outcome, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.CollectRequestID, req.SchoolID, req.Amount,
		req.StudentInfo.Name, req.StudentInfo.ID, req.StudentInfo.Email,
		req.PaymentURL, created, OutcomeProcessing, created,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment request: %w", err)
	}
	return nil
}

// UpdatePaymentOutcome records the result of a status lookup.
func (s *SQLiteStorage) UpdatePaymentOutcome(ctx context.Context, collectRequestID, outcome string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(collectRequestID, "collectRequestID"); err != nil {
		return err
	}
	if err := validateOutcome(outcome); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE payment_requests SET outcome = ?, updated_at = ?
		WHERE collect_request_id = ?
	`, outcome, at.UTC(), collectRequestID)
	if err != nil {
		return fmt.Errorf("failed to update payment outcome: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment request %s: %w", collectRequestID, common.ErrNotFound)
	}
	return nil
}

// GetPaymentRequest loads a single stored payment.
func (s *SQLiteStorage) GetPaymentRequest(ctx context.Context, collectRequestID string) (*model.PaymentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(collectRequestID, "collectRequestID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, paymentSelect+` WHERE collect_request_id = ?`, collectRequestID)
	record, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment request %s: %w", collectRequestID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment request: %w", err)
	}
	return record, nil
}

// ListPaymentRequests returns stored payments, newest first. A limit below
// one returns every row.
func (s *SQLiteStorage) ListPaymentRequests(ctx context.Context, limit int) ([]model.PaymentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := paymentSelect + ` ORDER BY created_at DESC, collect_request_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PaymentRecord
	for rows.Next() {
		record, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan payment request: %w", scanErr)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment requests: %w", err)
	}

	return records, nil
}

const paymentSelect = `
	SELECT collect_request_id, school_id, amount,
		student_name, student_id, student_email,
		payment_url, created_at, outcome, updated_at
	FROM payment_requests`

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*model.PaymentRecord, error) {
	var (
		record     model.PaymentRecord
		paymentURL sql.NullString
		updatedAt  sql.NullTime
	)
	err := row.Scan(
		&record.CollectRequestID, &record.SchoolID, &record.Amount,
		&record.StudentInfo.Name, &record.StudentInfo.ID, &record.StudentInfo.Email,
		&paymentURL, &record.Timestamp, &record.Outcome, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.PaymentURL = paymentURL.String
	if updatedAt.Valid {
		record.UpdatedAt = updatedAt.Time
	}
	return &record, nil
}
