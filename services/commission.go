package services

import (
	"errors"
	"log"

	"github.com/wambuidev/repair_hub/models"
	"gorm.io/gorm"
)

const DefaultCommissionPercentage = 30

// CommissionProvider yields the commission percentage to apply to an earnings
// calculation. Implementations must return a value in [0,100].
type CommissionProvider interface {
	CommissionPercentage() int
}

// SettingsProvider reads the single commission row on every call, so an admin
// change takes effect for bookings completed after the change while bookings
// with a written snapshot are untouched.
type SettingsProvider struct {
	DB *gorm.DB
}

func (p SettingsProvider) CommissionPercentage() int {
	var setting models.CommissionSetting
	if err := p.DB.Order("id asc").First(&setting).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("🔥 Failed to read commission setting, falling back to default: %v", err)
		}
		return DefaultCommissionPercentage
	}

	if setting.Percentage < 0 {
		return 0
	}
	if setting.Percentage > 100 {
		return 100
	}
	return setting.Percentage
}

// FixedRate is a CommissionProvider with a constant percentage, used in tests.
type FixedRate int

func (r FixedRate) CommissionPercentage() int { return int(r) }
