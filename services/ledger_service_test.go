package services

import (
	"errors"
	"testing"
	"time"

	"github.com/wambuidev/repair_hub/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func uuidPtr(v uuid.UUID) *uuid.UUID { return &v }

func TestBuildSummaryPartitionsPaidAndPending(t *testing.T) {
	payoutID := uuid.New()
	processedAt := time.Now().Add(-24 * time.Hour)
	completedAt := time.Now().Add(-48 * time.Hour)

	bookings := []models.Booking{
		{
			ID:                 uuid.New(),
			Reference:          "RB-AAAA1111",
			Amount:             1000,
			TechnicianEarnings: int64Ptr(700),
			CommissionPercentage: intPtr(30),
			PayoutRequestID:    uuidPtr(payoutID),
			CompletedAt:        &completedAt,
		},
		{
			ID:                 uuid.New(),
			Reference:          "RB-BBBB2222",
			Amount:             643,
			TechnicianEarnings: int64Ptr(450),
			CommissionPercentage: intPtr(30),
			PayoutRequestID:    uuidPtr(payoutID),
			CompletedAt:        &completedAt,
		},
		{
			ID:                 uuid.New(),
			Reference:          "RB-CCCC3333",
			Amount:             429,
			TechnicianEarnings: int64Ptr(300),
			CommissionPercentage: intPtr(30),
			CompletedAt:        &completedAt,
		},
	}
	payouts := []models.PayoutRequest{
		{ID: payoutID, Status: "approved", ProcessedAt: &processedAt},
	}

	summary := BuildSummary(bookings, payouts, 30)

	if summary.TotalEarnings != 1450 {
		t.Fatalf("total = %d, want 1450", summary.TotalEarnings)
	}
	if summary.PaidEarnings != 1150 {
		t.Fatalf("paid = %d, want 1150", summary.PaidEarnings)
	}
	if summary.PendingEarnings != 300 {
		t.Fatalf("pending = %d, want 300", summary.PendingEarnings)
	}
	if len(summary.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(summary.Transactions))
	}

	first := summary.Transactions[0]
	if first.Status != "paid" {
		t.Fatalf("claimed booking status = %q, want paid", first.Status)
	}
	if first.PayoutDate == nil || !first.PayoutDate.Equal(processedAt) {
		t.Fatalf("claimed booking payout date = %v, want %v", first.PayoutDate, processedAt)
	}

	last := summary.Transactions[2]
	if last.Status != "pending" || last.PayoutDate != nil {
		t.Fatalf("unclaimed booking should be pending with no payout date, got %q %v", last.Status, last.PayoutDate)
	}
}

// A booking claimed by a request that is still pending (or was rejected) must
// not count as paid.
func TestBuildSummaryIgnoresUnsettledClaims(t *testing.T) {
	payoutID := uuid.New()
	bookings := []models.Booking{
		{ID: uuid.New(), Amount: 1000, TechnicianEarnings: int64Ptr(700), PayoutRequestID: uuidPtr(payoutID)},
	}
	payouts := []models.PayoutRequest{
		{ID: payoutID, Status: "pending"},
	}

	summary := BuildSummary(bookings, payouts, 30)
	if summary.PaidEarnings != 0 || summary.PendingEarnings != 700 {
		t.Fatalf("paid = %d pending = %d, want 0 and 700", summary.PaidEarnings, summary.PendingEarnings)
	}
}

// The written snapshot wins over whatever the current commission rate says.
func TestBuildSummarySnapshotImmutableUnderRateChange(t *testing.T) {
	bookings := []models.Booking{
		{ID: uuid.New(), Amount: 1000, TechnicianEarnings: int64Ptr(700), CommissionPercentage: intPtr(30)},
	}

	summary := BuildSummary(bookings, nil, 50)
	if summary.TotalEarnings != 700 {
		t.Fatalf("snapshotted share changed with the rate: got %d, want 700", summary.TotalEarnings)
	}
	if summary.Transactions[0].CommissionPercentage != 30 {
		t.Fatalf("transaction pct = %d, want the snapshotted 30", summary.Transactions[0].CommissionPercentage)
	}
}

// Legacy rows that predate snapshotting fall back to the current rate.
func TestBuildSummaryLegacyRowComputesShare(t *testing.T) {
	bookings := []models.Booking{
		{ID: uuid.New(), Amount: 1000},
	}

	summary := BuildSummary(bookings, nil, 30)
	if summary.TotalEarnings != 700 {
		t.Fatalf("computed share = %d, want 700", summary.TotalEarnings)
	}
}

// With no completed booking rows left, the summary surfaces the cached
// running totals instead of zeros.
func TestSummaryFallsBackToCachedTotals(t *testing.T) {
	gdb, mock := newMockDB(t)
	technicianID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "technicians"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "total_earnings", "pending_earnings", "paid_earnings"}).
			AddRow(technicianID, "active", 5000, 1200, 3800))
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ledger := &Ledger{DB: gdb, Commission: FixedRate(30)}
	summary, err := ledger.Summary(technicianID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalEarnings != 5000 || summary.PendingEarnings != 1200 || summary.PaidEarnings != 3800 {
		t.Fatalf("cached totals not surfaced: %+v", summary)
	}
	if len(summary.Transactions) != 0 {
		t.Fatalf("expected no transactions, got %d", len(summary.Transactions))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Completing the same booking twice must settle earnings exactly once.
func TestSettleCompletionOnlyOnce(t *testing.T) {
	gdb, mock := newMockDB(t)

	bookingID := uuid.New()
	technicianID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "technician_id", "status", "amount", "technician_earnings"}).
			AddRow(bookingID, technicianID, "completed", 1000, 700))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ledger := &Ledger{DB: gdb, Commission: FixedRate(30)}
	_, err := ledger.SettleCompletion(bookingID, technicianID)
	if !errors.Is(err, ErrBookingNotEligible) {
		t.Fatalf("expected ErrBookingNotEligible, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
