package services

import (
	"fmt"
	"log"
	"time"

	config "github.com/wambuidev/repair_hub/configs"
	"github.com/wambuidev/repair_hub/models"
	"github.com/wambuidev/repair_hub/notifications"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultMinimumPayout = 500

type PayoutService struct {
	DB      *gorm.DB
	Ledger  *Ledger
	Minimum int64
}

func NewPayoutService(db *gorm.DB) *PayoutService {
	return &PayoutService{
		DB:      db,
		Ledger:  NewLedger(db),
		Minimum: int64(config.ConfigInt("MINIMUM_PAYOUT_AMOUNT", DefaultMinimumPayout)),
	}
}

// PayoutTotal sums the technician shares of the bookings about to be claimed,
// so PayoutRequest.Amount always equals what was actually claimed.
func PayoutTotal(bookings []models.Booking, commissionPct int) int64 {
	var total int64
	for _, booking := range bookings {
		total += bookingShare(booking, commissionPct)
	}
	return total
}

// RequestPayout claims every unpaid completed booking of the technician into
// a new pending payout request. Claiming is all-or-nothing: each booking is
// taken with a conditional update, and if any one was already claimed by a
// concurrent request the whole transaction rolls back and nothing is claimed.
func (s *PayoutService) RequestPayout(technicianID uuid.UUID, paymentMethod, accountDetails string) (*models.PayoutRequest, error) {
	summary, err := s.Ledger.Summary(technicianID)
	if err != nil {
		return nil, err
	}
	if summary.PendingEarnings < s.Minimum {
		return nil, ErrBelowMinimumPayout
	}

	var request models.PayoutRequest
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var unclaimed []models.Booking
		if err := tx.
			Where("technician_id = ? AND status = ? AND payout_request_id IS NULL", technicianID, "completed").
			Find(&unclaimed).Error; err != nil {
			return err
		}
		if len(unclaimed) == 0 {
			return ErrNoUnpaidBookings
		}

		request = models.PayoutRequest{
			ID:             uuid.New(),
			TechnicianID:   technicianID,
			Amount:         PayoutTotal(unclaimed, s.Ledger.Commission.CommissionPercentage()),
			Status:         "pending",
			PaymentMethod:  paymentMethod,
			AccountDetails: accountDetails,
			RequestedAt:    time.Now(),
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		for _, booking := range unclaimed {
			res := tx.Model(&models.Booking{}).
				Where("id = ? AND payout_request_id IS NULL", booking.ID).
				Update("payout_request_id", request.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrBookingAlreadyClaimed
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go notifications.Notify(nil, "admin", "Payout Request Pending Approval",
		fmt.Sprintf("A technician requested a payout of %d via %s.", request.Amount, request.PaymentMethod),
		"payout_request", request.ID)

	return &request, nil
}

// ProcessPayout moves a payout request along pending → approved → paid, or
// pending → rejected. Rejection releases the claimed bookings back to the
// unclaimed pool; marking paid shifts the technician's cached pending total
// into paid. Transitions are conditional updates so two admins cannot settle
// the same request twice.
func (s *PayoutService) ProcessPayout(requestID uuid.UUID, decision string, adminNotes string) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	if err := s.DB.Preload("Technician.User").First(&request, "id = ?", requestID).Error; err != nil {
		return nil, ErrPayoutRequestNotFound
	}

	now := time.Now()
	var notes *string
	if adminNotes != "" {
		notes = &adminNotes
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		switch decision {
		case "approve":
			res := tx.Model(&models.PayoutRequest{}).
				Where("id = ? AND status = ?", requestID, "pending").
				Updates(map[string]interface{}{"status": "approved", "processed_at": now, "admin_notes": notes})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInvalidPayoutTransition
			}
			request.Status = "approved"
			request.ProcessedAt = &now

		case "paid":
			res := tx.Model(&models.PayoutRequest{}).
				Where("id = ? AND status = ?", requestID, "approved").
				Updates(map[string]interface{}{"status": "paid", "paid_at": now, "admin_notes": notes})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInvalidPayoutTransition
			}
			if err := tx.Model(&models.Technician{}).
				Where("user_id = ?", request.TechnicianID).
				Updates(map[string]interface{}{
					"pending_earnings": gorm.Expr("pending_earnings - ?", request.Amount),
					"paid_earnings":    gorm.Expr("paid_earnings + ?", request.Amount),
				}).Error; err != nil {
				return err
			}
			request.Status = "paid"
			request.PaidAt = &now

		case "reject":
			res := tx.Model(&models.PayoutRequest{}).
				Where("id = ? AND status IN ?", requestID, []string{"pending", "approved"}).
				Updates(map[string]interface{}{"status": "rejected", "processed_at": now, "admin_notes": notes})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInvalidPayoutTransition
			}
			// Release the claimed bookings so a future request can take them.
			if err := tx.Model(&models.Booking{}).
				Where("payout_request_id = ?", requestID).
				Update("payout_request_id", nil).Error; err != nil {
				return err
			}
			request.Status = "rejected"
			request.ProcessedAt = &now

		default:
			return ErrInvalidPayoutTransition
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(request)
	return &request, nil
}

func (s *PayoutService) notifyDecision(request models.PayoutRequest) {
	technician := request.Technician.User
	if technician.Email == "" {
		log.Printf("Skipping payout decision email for request %s: technician user not loaded", request.ID)
		return
	}

	switch request.Status {
	case "paid":
		go notifications.SendEmail(technician.FullName, technician.Email,
			"Your Payout Has Been Sent",
			fmt.Sprintf("<h1>Payout Sent</h1><p>Hello %s,</p><p>Your payout of %d has been processed and sent to your %s account.</p>",
				technician.FullName, request.Amount, request.PaymentMethod))
	case "rejected":
		adminNotes := ""
		if request.AdminNotes != nil {
			adminNotes = *request.AdminNotes
		}
		go notifications.SendEmail(technician.FullName, technician.Email,
			"Update on Your Payout Request",
			fmt.Sprintf("<h1>Payout Request Update</h1><p>Hello %s,</p><p>Your payout request of %d was rejected and the claimed jobs were released.</p><p><b>Admin Notes:</b> %s</p>",
				technician.FullName, request.Amount, adminNotes))
	}
}
