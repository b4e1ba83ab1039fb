package services

import (
	"fmt"
	"log"
	"time"

	config "github.com/wambuidev/repair_hub/configs"
	"github.com/wambuidev/repair_hub/models"
	"github.com/wambuidev/repair_hub/notifications"
	"github.com/wambuidev/repair_hub/utils"
	"github.com/wambuidev/repair_hub/websocket"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultOfferFanOut = 5
	DefaultOfferWindow = 30 * time.Minute
)

// SelectionStrategy picks at most limit technicians from the eligible
// candidates. Swappable so fan-out can later become weighted or ranked
// without touching the rest of the pipeline.
type SelectionStrategy func(candidates []models.Technician, limit int) []models.Technician

// FirstEligible takes candidates in roster order. Known limitation: no
// fairness or weighting across technicians.
func FirstEligible(candidates []models.Technician, limit int) []models.Technician {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}

type Dispatcher struct {
	DB          *gorm.DB
	FanOut      int
	OfferWindow time.Duration
	Select      SelectionStrategy
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{
		DB:          db,
		FanOut:      config.ConfigInt("OFFER_FAN_OUT", DefaultOfferFanOut),
		OfferWindow: time.Duration(config.ConfigInt("OFFER_WINDOW_MINUTES", 30)) * time.Minute,
		Select:      FirstEligible,
	}
}

// OfferExpired reports whether the offer's window has passed, regardless of
// the stored status. Expiry is lazy: an offer past its window is never
// acceptable even if no sweep has flipped its row yet.
func OfferExpired(offer models.JobOffer, now time.Time) bool {
	return !offer.ExpiresAt.After(now)
}

// DispatchOffers fans a confirmed, paid booking out to eligible technicians.
// Zero eligible technicians is logged and returns no offers; it never fails
// the payment confirmation that triggered it.
func (d *Dispatcher) DispatchOffers(bookingID uuid.UUID) ([]models.JobOffer, error) {
	var booking models.Booking
	if err := d.DB.Preload("Service").First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.Status != "confirmed" || booking.PaymentStatus != "paid" {
		return nil, fmt.Errorf("booking %s is not confirmed and paid: %w", booking.Reference, ErrBookingNotEligible)
	}

	var candidates []models.Technician
	if err := d.DB.Where("status = ? AND is_available = ?", "active", true).Find(&candidates).Error; err != nil {
		return nil, err
	}

	// Availability recovery: if every active technician was left unavailable,
	// fall back to all active ones and flip the selected back to available so
	// the booking is not permanently stuck.
	recovered := false
	if len(candidates) == 0 {
		if err := d.DB.Where("status = ?", "active").Find(&candidates).Error; err != nil {
			return nil, err
		}
		recovered = true
	}

	selected := d.Select(candidates, d.FanOut)
	if len(selected) == 0 {
		log.Printf("⚠️ No eligible technicians for booking %s; left for manual re-dispatch", booking.Reference)
		return nil, nil
	}

	now := time.Now()
	offers := make([]models.JobOffer, 0, len(selected))
	err := d.DB.Transaction(func(tx *gorm.DB) error {
		if recovered {
			ids := make([]uuid.UUID, len(selected))
			for i, t := range selected {
				ids[i] = t.UserID
			}
			if err := tx.Model(&models.Technician{}).Where("user_id IN ?", ids).
				Update("is_available", true).Error; err != nil {
				return err
			}
		}

		for _, technician := range selected {
			offer := models.JobOffer{
				ID:           uuid.New(),
				BookingID:    booking.ID,
				TechnicianID: technician.UserID,
				Status:       "pending",
				ServiceName:  booking.Service.Name,
				Address:      booking.Address,
				Amount:       booking.Amount,
				ScheduledAt:  booking.ScheduledAt,
				DistanceKm:   offerDistance(booking, technician),
				ExpiresAt:    now.Add(d.OfferWindow),
				CreatedAt:    now,
			}
			if err := tx.Create(&offer).Error; err != nil {
				return err
			}
			offers = append(offers, offer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, offer := range offers {
		go websocket.PushOffer(offer)
		go notifications.Notify(&offer.TechnicianID, "technician", "New Job Offer",
			fmt.Sprintf("A %s job near %s is available. The offer expires at %s.",
				offer.ServiceName, offer.Address, offer.ExpiresAt.Format(time.Kitchen)),
			"job_offer", offer.ID)
	}

	log.Printf("✅ Dispatched %d offer(s) for booking %s", len(offers), booking.Reference)
	return offers, nil
}

// AcceptOffer is the single-winner acceptance. Exactly one offer per booking
// can reach accepted; the losing side of any race, an expired offer, and an
// offer whose booking was cancelled all surface the same
// ErrOfferNoLongerAvailable so callers cannot tell them apart.
func (d *Dispatcher) AcceptOffer(technicianID, offerID uuid.UUID) (uuid.UUID, error) {
	var offer models.JobOffer
	if err := d.DB.First(&offer, "id = ? AND technician_id = ?", offerID, technicianID).Error; err != nil {
		return uuid.Nil, ErrOfferNoLongerAvailable
	}

	now := time.Now()
	if OfferExpired(offer, now) {
		return uuid.Nil, ErrOfferNoLongerAvailable
	}

	err := d.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.JobOffer{}).
			Where("id = ? AND status = ? AND expires_at > ?", offerID, "pending", now).
			Update("status", "accepted")
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOfferNoLongerAvailable
		}

		res = tx.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND technician_id IS NULL", offer.BookingID, "confirmed").
			Updates(map[string]interface{}{"technician_id": technicianID, "status": "in_progress"})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Booking was cancelled or assigned between reads; roll back the
			// offer acceptance too.
			return ErrOfferNoLongerAvailable
		}

		if err := tx.Model(&models.JobOffer{}).
			Where("booking_id = ? AND id <> ? AND status = ?", offer.BookingID, offerID, "pending").
			Update("status", "declined").Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return offer.BookingID, nil
}

// DeclineOffer lets a technician pass on a pending offer. Declining an offer
// that is no longer pending is not an error.
func (d *Dispatcher) DeclineOffer(technicianID, offerID uuid.UUID) error {
	res := d.DB.Model(&models.JobOffer{}).
		Where("id = ? AND technician_id = ? AND status = ?", offerID, technicianID, "pending").
		Update("status", "declined")
	return res.Error
}

// InvalidatePendingOffers flips every pending offer for the booking to the
// given terminal status. Used on cancellation and before a re-dispatch.
func InvalidatePendingOffers(tx *gorm.DB, bookingID uuid.UUID, status string) error {
	return tx.Model(&models.JobOffer{}).
		Where("booking_id = ? AND status = ?", bookingID, "pending").
		Update("status", status).Error
}

// CancelBooking cancels a customer's booking before a technician has taken
// it, invalidating any outstanding offers in the same transaction.
func (d *Dispatcher) CancelBooking(customerID, bookingID uuid.UUID) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND customer_id = ? AND status IN ?", bookingID, customerID, []string{"pending", "confirmed"}).
			Update("status", "cancelled")
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBookingNotEligible
		}
		return InvalidatePendingOffers(tx, bookingID, "expired")
	})
}

// Redispatch is the manual entry point for a booking dispatch left with no
// offers, or whose offers all expired. Outstanding pending offers are expired
// first so the new fan-out starts clean.
func (d *Dispatcher) Redispatch(bookingID uuid.UUID) ([]models.JobOffer, error) {
	if err := InvalidatePendingOffers(d.DB, bookingID, "expired"); err != nil {
		return nil, err
	}
	return d.DispatchOffers(bookingID)
}

func offerDistance(booking models.Booking, technician models.Technician) float64 {
	if booking.Latitude == nil || booking.Longitude == nil ||
		technician.BaseLatitude == nil || technician.BaseLongitude == nil {
		return 0
	}
	return utils.HaversineKm(*booking.Latitude, *booking.Longitude,
		*technician.BaseLatitude, *technician.BaseLongitude)
}
