package services

import "errors"

var (
	ErrInvalidAmount = errors.New("amount cannot be negative")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	ErrOfferNoLongerAvailable = errors.New("offer no longer available")

	ErrBelowMinimumPayout      = errors.New("pending earnings are below the minimum payout amount")
	ErrNoUnpaidBookings        = errors.New("no unpaid completed bookings to claim")
	ErrBookingAlreadyClaimed   = errors.New("a booking was already claimed by another payout request")
	ErrInvalidPayoutTransition = errors.New("payout request cannot move to the requested status")
	ErrPayoutRequestNotFound   = errors.New("payout request not found")

	ErrBookingNotFound    = errors.New("booking not found")
	ErrTechnicianNotFound = errors.New("technician profile not found")
	ErrTechnicianMismatch = errors.New("booking is not assigned to this technician")
	ErrBookingNotEligible = errors.New("booking is not in an eligible state")
	ErrAlreadyRated       = errors.New("a rating for this booking has already been submitted")
)
