package services

import (
	"time"

	"github.com/wambuidev/repair_hub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerTransaction is one completed booking's contribution to a
// technician's earnings, partitioned into paid or pending.
type LedgerTransaction struct {
	BookingID            uuid.UUID  `json:"booking_id"`
	Reference            string     `json:"reference"`
	ServiceName          string     `json:"service_name"`
	Amount               int64      `json:"amount"`
	TechnicianShare      int64      `json:"technician_share"`
	CommissionPercentage int        `json:"commission_percentage"`
	Status               string     `json:"status"`
	CompletedAt          *time.Time `json:"completed_at"`
	PayoutDate           *time.Time `json:"payout_date"`
}

type EarningsSummary struct {
	TotalEarnings   int64               `json:"total_earnings"`
	PendingEarnings int64               `json:"pending_earnings"`
	PaidEarnings    int64               `json:"paid_earnings"`
	Transactions    []LedgerTransaction `json:"transactions"`
}

type Ledger struct {
	DB         *gorm.DB
	Commission CommissionProvider
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db, Commission: SettingsProvider{DB: db}}
}

// bookingShare returns the technician's cut of a completed booking. A written
// snapshot is always used as-is; computing with the current rate is only the
// defensive fallback for legacy rows that predate snapshotting.
func bookingShare(booking models.Booking, commissionPct int) int64 {
	if booking.TechnicianEarnings != nil {
		return *booking.TechnicianEarnings
	}
	shares, err := ComputeShares(booking.Amount, commissionPct)
	if err != nil {
		return 0
	}
	return shares.TechnicianShare
}

// BuildSummary aggregates completed bookings into total/pending/paid
// earnings. A booking counts as paid when it is claimed by a payout request
// whose status is approved or paid; that request's timestamp becomes the
// transaction's payout date.
func BuildSummary(bookings []models.Booking, payouts []models.PayoutRequest, commissionPct int) EarningsSummary {
	settled := make(map[uuid.UUID]*time.Time, len(payouts))
	for i := range payouts {
		p := payouts[i]
		if p.Status != "approved" && p.Status != "paid" {
			continue
		}
		payoutDate := p.ProcessedAt
		if p.PaidAt != nil {
			payoutDate = p.PaidAt
		}
		if payoutDate == nil {
			requestedAt := p.RequestedAt
			payoutDate = &requestedAt
		}
		settled[p.ID] = payoutDate
	}

	summary := EarningsSummary{Transactions: make([]LedgerTransaction, 0, len(bookings))}
	for _, booking := range bookings {
		share := bookingShare(booking, commissionPct)
		pct := commissionPct
		if booking.CommissionPercentage != nil {
			pct = *booking.CommissionPercentage
		}

		txn := LedgerTransaction{
			BookingID:            booking.ID,
			Reference:            booking.Reference,
			ServiceName:          booking.Service.Name,
			Amount:               booking.Amount,
			TechnicianShare:      share,
			CommissionPercentage: pct,
			Status:               "pending",
			CompletedAt:          booking.CompletedAt,
		}

		summary.TotalEarnings += share
		if booking.PayoutRequestID != nil {
			if payoutDate, ok := settled[*booking.PayoutRequestID]; ok {
				txn.Status = "paid"
				txn.PayoutDate = payoutDate
				summary.PaidEarnings += share
				summary.Transactions = append(summary.Transactions, txn)
				continue
			}
		}
		summary.PendingEarnings += share
		summary.Transactions = append(summary.Transactions, txn)
	}

	return summary
}

// Summary produces the technician's earnings breakdown from live booking
// rows. When no completed bookings survive (archived history) it surfaces the
// running totals cached on the technician row instead of zeros; that cache is
// maintained at settlement time and trusted, not re-derived.
func (l *Ledger) Summary(technicianID uuid.UUID) (EarningsSummary, error) {
	var technician models.Technician
	if err := l.DB.First(&technician, "user_id = ?", technicianID).Error; err != nil {
		return EarningsSummary{}, ErrTechnicianNotFound
	}

	var bookings []models.Booking
	if err := l.DB.Preload("Service").
		Where("technician_id = ? AND status = ?", technicianID, "completed").
		Order("completed_at desc").
		Find(&bookings).Error; err != nil {
		return EarningsSummary{}, err
	}

	if len(bookings) == 0 {
		return EarningsSummary{
			TotalEarnings:   technician.TotalEarnings,
			PendingEarnings: technician.PendingEarnings,
			PaidEarnings:    technician.PaidEarnings,
			Transactions:    []LedgerTransaction{},
		}, nil
	}

	var payouts []models.PayoutRequest
	if err := l.DB.
		Where("technician_id = ? AND status IN ?", technicianID, []string{"approved", "paid"}).
		Find(&payouts).Error; err != nil {
		return EarningsSummary{}, err
	}

	return BuildSummary(bookings, payouts, l.Commission.CommissionPercentage()), nil
}

// SettleCompletion moves an in-progress booking to completed and writes the
// earnings snapshot exactly once, using the commission rate in force at
// completion time. The conditional update closes the double-complete race.
func (l *Ledger) SettleCompletion(bookingID, technicianID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := l.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.TechnicianID == nil || *booking.TechnicianID != technicianID {
		return nil, ErrTechnicianMismatch
	}

	commissionPct := l.Commission.CommissionPercentage()
	shares, err := ComputeShares(booking.Amount, commissionPct)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = l.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND technician_earnings IS NULL", bookingID, "in_progress").
			Updates(map[string]interface{}{
				"status":                "completed",
				"completed_at":          now,
				"technician_earnings":   shares.TechnicianShare,
				"commission_percentage": commissionPct,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBookingNotEligible
		}

		return tx.Model(&models.Technician{}).Where("user_id = ?", technicianID).
			Updates(map[string]interface{}{
				"total_earnings":   gorm.Expr("total_earnings + ?", shares.TechnicianShare),
				"pending_earnings": gorm.Expr("pending_earnings + ?", shares.TechnicianShare),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	booking.Status = "completed"
	booking.CompletedAt = &now
	booking.TechnicianEarnings = &shares.TechnicianShare
	booking.CommissionPercentage = &commissionPct
	return &booking, nil
}
