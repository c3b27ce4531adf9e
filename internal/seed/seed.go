// Package seed bootstraps the default plan catalog for fresh installations.
package seed

import (
	"gorm.io/gorm"

	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
)

var defaultPlans = []plandomain.Plan{
	{ID: 1, Name: "Basic 40", MonthlyPrice: 39900, Speed: "40 Mbps", DataLimit: "Unlimited", Commitment: "Monthly"},
	{ID: 2, Name: "Standard 100", MonthlyPrice: 59900, Speed: "100 Mbps", DataLimit: "Unlimited", Commitment: "Monthly"},
	{ID: 3, Name: "Turbo 150", MonthlyPrice: 79900, Speed: "150 Mbps", DataLimit: "Unlimited", Commitment: "Monthly"},
	{ID: 4, Name: "Giga 200", MonthlyPrice: 99900, Speed: "200 Mbps", DataLimit: "Unlimited", Commitment: "Monthly"},
}

// EnsureDefaultPlans inserts the stock catalog when it is missing. Existing
// plans are never overwritten, so operator edits survive restarts.
func EnsureDefaultPlans(db *gorm.DB) error {
	for _, plan := range defaultPlans {
		p := plan
		if err := db.Where("id = ?", p.ID).FirstOrCreate(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
