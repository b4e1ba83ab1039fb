package services

import (
	"errors"
	"testing"
	"time"

	"github.com/wambuidev/repair_hub/database"
	"github.com/wambuidev/repair_hub/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, WithoutReturning: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}

	// Fire-and-forget notification writes go through the package-level
	// connection; point it at the mock so they cannot dereference nil.
	prev := database.DB
	database.DB = gdb
	t.Cleanup(func() { database.DB = prev })

	return gdb, mock
}

func TestFirstEligible(t *testing.T) {
	candidates := []models.Technician{
		{UserID: uuid.New()},
		{UserID: uuid.New()},
		{UserID: uuid.New()},
	}

	if got := FirstEligible(candidates, 2); len(got) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(got))
	}
	if got := FirstEligible(candidates, 5); len(got) != 3 {
		t.Fatalf("limit above pool should return all, got %d", len(got))
	}
	if got := FirstEligible(candidates, 0); len(got) != 3 {
		t.Fatalf("non-positive limit means unlimited, got %d", len(got))
	}
	if got := FirstEligible(nil, 5); len(got) != 0 {
		t.Fatalf("empty pool should stay empty, got %d", len(got))
	}
}

func TestOfferExpired(t *testing.T) {
	now := time.Now()

	live := models.JobOffer{ExpiresAt: now.Add(10 * time.Minute)}
	if OfferExpired(live, now) {
		t.Fatal("offer inside its window reported expired")
	}

	past := models.JobOffer{ExpiresAt: now.Add(-time.Second)}
	if !OfferExpired(past, now) {
		t.Fatal("offer past its window reported live")
	}

	boundary := models.JobOffer{ExpiresAt: now}
	if !OfferExpired(boundary, now) {
		t.Fatal("offer exactly at its deadline should count as expired")
	}
}

func expectDispatchBooking(mock sqlmock.Sqlmock, bookingID, serviceID uuid.UUID) {
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "service_id", "status", "payment_status", "amount", "address", "latitude", "longitude"}).
			AddRow(bookingID, "RB-DISPATCH1", serviceID, "confirmed", "paid", 1500, "12 Moi Avenue", -1.2921, 36.8219))
	mock.ExpectQuery(`SELECT \* FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(serviceID, "Washing Machine Repair"))
}

// Every active technician was left unavailable: dispatch falls back to the
// active roster, flips the selected technicians back to available, and still
// fans the booking out.
func TestDispatchOffersAvailabilityRecovery(t *testing.T) {
	gdb, mock := newMockDB(t)

	bookingID := uuid.New()
	serviceID := uuid.New()
	techA := uuid.New()
	techB := uuid.New()

	expectDispatchBooking(mock, bookingID, serviceID)

	mock.ExpectQuery(`SELECT \* FROM "technicians"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectQuery(`SELECT \* FROM "technicians"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "is_available", "base_latitude", "base_longitude"}).
			AddRow(techA, "active", false, -1.30, 36.80).
			AddRow(techB, "active", false, -1.28, 36.83))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "technicians" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "job_offers"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "job_offers"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := &Dispatcher{DB: gdb, FanOut: DefaultOfferFanOut, OfferWindow: DefaultOfferWindow, Select: FirstEligible}
	offers, err := d.DispatchOffers(bookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}

	seen := map[uuid.UUID]bool{offers[0].TechnicianID: true, offers[1].TechnicianID: true}
	if !seen[techA] || !seen[techB] {
		t.Fatalf("offers went to %v, want both fallback technicians", seen)
	}

	now := time.Now()
	for _, offer := range offers {
		if offer.ServiceName != "Washing Machine Repair" || offer.Address != "12 Moi Avenue" || offer.Amount != 1500 {
			t.Fatalf("offer snapshot incomplete: %+v", offer)
		}
		if !offer.ExpiresAt.After(now) {
			t.Fatalf("offer window not set: expires %v", offer.ExpiresAt)
		}
		if offer.DistanceKm <= 0 {
			t.Fatalf("offer distance not computed: %v", offer.DistanceKm)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A pool larger than the fan-out cap produces exactly FanOut offers.
func TestDispatchOffersCapsFanOut(t *testing.T) {
	gdb, mock := newMockDB(t)

	bookingID := uuid.New()
	serviceID := uuid.New()

	expectDispatchBooking(mock, bookingID, serviceID)

	rows := sqlmock.NewRows([]string{"user_id", "status", "is_available", "base_latitude", "base_longitude"})
	for i := 0; i < 3; i++ {
		rows.AddRow(uuid.New(), "active", true, -1.30, 36.80)
	}
	mock.ExpectQuery(`SELECT \* FROM "technicians"`).WillReturnRows(rows)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "job_offers"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "job_offers"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := &Dispatcher{DB: gdb, FanOut: 2, OfferWindow: DefaultOfferWindow, Select: FirstEligible}
	offers, err := d.DispatchOffers(bookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected fan-out capped at 2 offers, got %d", len(offers))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// An offer past its window must be rejected even when its row still says
// pending, without touching the booking.
func TestAcceptOfferLazyExpiry(t *testing.T) {
	gdb, mock := newMockDB(t)

	offerID := uuid.New()
	technicianID := uuid.New()
	bookingID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "job_offers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "technician_id", "status", "expires_at"}).
			AddRow(offerID, bookingID, technicianID, "pending", time.Now().Add(-time.Minute)))

	d := &Dispatcher{DB: gdb, FanOut: DefaultOfferFanOut, OfferWindow: DefaultOfferWindow, Select: FirstEligible}
	_, err := d.AcceptOffer(technicianID, offerID)
	if !errors.Is(err, ErrOfferNoLongerAvailable) {
		t.Fatalf("expected ErrOfferNoLongerAvailable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// The losing side of an acceptance race: the offer row flips, but the booking
// was already assigned, so the whole transaction rolls back.
func TestAcceptOfferLosesBookingRace(t *testing.T) {
	gdb, mock := newMockDB(t)

	offerID := uuid.New()
	technicianID := uuid.New()
	bookingID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "job_offers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "technician_id", "status", "expires_at"}).
			AddRow(offerID, bookingID, technicianID, "pending", time.Now().Add(10*time.Minute)))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "job_offers" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	d := &Dispatcher{DB: gdb, FanOut: DefaultOfferFanOut, OfferWindow: DefaultOfferWindow, Select: FirstEligible}
	_, err := d.AcceptOffer(technicianID, offerID)
	if !errors.Is(err, ErrOfferNoLongerAvailable) {
		t.Fatalf("expected ErrOfferNoLongerAvailable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A raced or already-handled offer: the conditional update on the offer row
// itself matches nothing.
func TestAcceptOfferAlreadyTaken(t *testing.T) {
	gdb, mock := newMockDB(t)

	offerID := uuid.New()
	technicianID := uuid.New()
	bookingID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "job_offers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "technician_id", "status", "expires_at"}).
			AddRow(offerID, bookingID, technicianID, "pending", time.Now().Add(10*time.Minute)))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "job_offers" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	d := &Dispatcher{DB: gdb, FanOut: DefaultOfferFanOut, OfferWindow: DefaultOfferWindow, Select: FirstEligible}
	_, err := d.AcceptOffer(technicianID, offerID)
	if !errors.Is(err, ErrOfferNoLongerAvailable) {
		t.Fatalf("expected ErrOfferNoLongerAvailable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
