package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/wambuidev/repair_hub/database"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}

	prev := database.DB
	database.DB = gdb
	t.Cleanup(func() { database.DB = prev })
	return mock
}

// Two deliveries of the same "paid" event race past the pre-check: the loser
// of the conditional update must acknowledge without dispatching a second
// round of offers.
func TestPaymentWebhookReplayDoesNotRedispatch(t *testing.T) {
	mock := newMockDB(t)

	bookingID := uuid.New()
	customerID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "customer_id", "status", "payment_status", "amount"}).
			AddRow(bookingID, "RB-TEST0001", customerID, "pending", "pending", 1000))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email"}).
			AddRow(customerID, "Jane Customer", "jane@example.com"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	app := fiber.New()
	app.Post("/api/v1/payments/webhook", HandlePaymentWebhook)

	body, _ := json.Marshal(fiber.Map{
		"booking_id":     bookingID.String(),
		"amount":         1000,
		"payment_status": "paid",
	})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	respBody, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(respBody), "already processed") {
		t.Fatalf("expected already-processed acknowledgement, got %s", respBody)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
