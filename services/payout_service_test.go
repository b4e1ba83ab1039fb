package services

import (
	"errors"
	"testing"
	"time"

	"github.com/wambuidev/repair_hub/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestPayoutTotal(t *testing.T) {
	bookings := []models.Booking{
		{Amount: 1000, TechnicianEarnings: int64Ptr(700)},
		{Amount: 500, TechnicianEarnings: int64Ptr(350)},
		{Amount: 1000}, // legacy row, computed at the given rate
	}

	if got := PayoutTotal(bookings, 30); got != 1750 {
		t.Fatalf("payout total = %d, want 1750", got)
	}
	if got := PayoutTotal(nil, 30); got != 0 {
		t.Fatalf("empty payout total = %d, want 0", got)
	}
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	gdb, mock := newMockDB(t)
	technicianID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "technicians"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "total_earnings", "pending_earnings", "paid_earnings"}).
			AddRow(technicianID, "active", 100, 100, 0))
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := &PayoutService{DB: gdb, Ledger: &Ledger{DB: gdb, Commission: FixedRate(30)}, Minimum: 500}
	_, err := s.RequestPayout(technicianID, "mpesa", "254700000000")
	if !errors.Is(err, ErrBelowMinimumPayout) {
		t.Fatalf("expected ErrBelowMinimumPayout, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessPayoutMissingRequest(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "payout_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := &PayoutService{DB: gdb, Ledger: &Ledger{DB: gdb, Commission: FixedRate(30)}, Minimum: 500}
	_, err := s.ProcessPayout(uuid.New(), "approve", "")
	if !errors.Is(err, ErrPayoutRequestNotFound) {
		t.Fatalf("expected ErrPayoutRequestNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A concurrent request claimed one of the bookings between the summary read
// and the claim: the conditional claim misses, and the whole request rolls
// back without claiming anything.
func TestRequestPayoutClaimConflictRollsBack(t *testing.T) {
	gdb, mock := newMockDB(t)

	technicianID := uuid.New()
	bookingID := uuid.New()
	serviceID := uuid.New()
	completedAt := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT \* FROM "technicians"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).
			AddRow(technicianID, "active"))
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_id", "technician_id", "status", "amount", "technician_earnings", "completed_at"}).
			AddRow(bookingID, serviceID, technicianID, "completed", 1000, 700, completedAt))
	mock.ExpectQuery(`SELECT \* FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(serviceID, "Fridge Repair"))
	mock.ExpectQuery(`SELECT \* FROM "payout_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_id", "technician_id", "status", "amount", "technician_earnings", "completed_at"}).
			AddRow(bookingID, serviceID, technicianID, "completed", 1000, 700, completedAt))
	mock.ExpectExec(`INSERT INTO "payout_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	s := &PayoutService{DB: gdb, Ledger: &Ledger{DB: gdb, Commission: FixedRate(30)}, Minimum: 500}
	_, err := s.RequestPayout(technicianID, "mpesa", "254700000000")
	if !errors.Is(err, ErrBookingAlreadyClaimed) {
		t.Fatalf("expected ErrBookingAlreadyClaimed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
