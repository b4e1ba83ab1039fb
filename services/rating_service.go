package services

import (
	"errors"
	"math"
	"time"

	"github.com/wambuidev/repair_hub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db}
}

// RoundAverage rounds a running average to 2 decimal places for display.
func RoundAverage(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// SubmitRating records one rating per (booking, customer) and recomputes the
// technician's average over all their ratings. Preconditions are checked in
// order so each failure is distinguishable; the unique index on
// (booking_id, customer_id) closes the concurrent double-submit race.
func (s *RatingService) SubmitRating(customerID, bookingID, technicianID uuid.UUID, rating int, comment string) (*models.Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var newRating models.Rating
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return ErrBookingNotFound
		}
		if booking.CustomerID != customerID {
			return ErrBookingNotFound
		}
		if booking.TechnicianID == nil || *booking.TechnicianID != technicianID {
			return ErrTechnicianMismatch
		}
		if booking.Status != "completed" {
			return ErrBookingNotEligible
		}

		var existing models.Rating
		if err := tx.Where("booking_id = ? AND customer_id = ?", bookingID, customerID).
			First(&existing).Error; err == nil {
			return ErrAlreadyRated
		}

		newRating = models.Rating{
			ID:           uuid.New(),
			BookingID:    bookingID,
			CustomerID:   customerID,
			TechnicianID: technicianID,
			Rating:       rating,
			Comment:      comment,
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(&newRating).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRated
			}
			return err
		}

		if err := tx.Model(&models.Booking{}).Where("id = ?", bookingID).
			Update("rated", true).Error; err != nil {
			return err
		}

		// Full recompute over all ratings rather than an incremental update,
		// so the average never drifts.
		var result struct {
			Avg   float64
			Count int64
		}
		if err := tx.Model(&models.Rating{}).Where("technician_id = ?", technicianID).
			Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
			Scan(&result).Error; err != nil {
			return err
		}

		return tx.Model(&models.Technician{}).Where("user_id = ?", technicianID).
			Updates(map[string]interface{}{
				"avg_rating":   RoundAverage(result.Avg),
				"rating_count": result.Count,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &newRating, nil
}
