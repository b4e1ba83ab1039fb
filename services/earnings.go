package services

// Shares is the split of a booking amount between the technician and the
// platform. TechnicianShare + AdminShare always equals the input amount.
type Shares struct {
	TechnicianShare int64 `json:"technician_share"`
	AdminShare      int64 `json:"admin_share"`
}

// ComputeShares splits amount by the given commission percentage. The admin
// share is rounded half-up; the technician share is the remainder, so no
// currency unit is ever lost or duplicated by rounding each side separately.
// Callers are responsible for clamping commissionPct to [0,100].
func ComputeShares(amount int64, commissionPct int) (Shares, error) {
	if amount < 0 {
		return Shares{}, ErrInvalidAmount
	}

	adminShare := (amount*int64(commissionPct) + 50) / 100
	return Shares{
		TechnicianShare: amount - adminShare,
		AdminShare:      adminShare,
	}, nil
}
