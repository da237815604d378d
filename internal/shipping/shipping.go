// Package shipping resolves delivery charges from configured area
// tiers and delivery-option surcharges.
package shipping

import (
	"math"
	"strings"
	"time"

	"github.com/rowanvale/souk/internal/domain"
)

// Tier orders area matching: free first, worldwide last.
type Tier string

const (
	TierFree      Tier = "free"
	TierCentral   Tier = "central"
	TierCountry   Tier = "country"
	TierWorldwide Tier = "worldwide"
)

// tierPriority is the order tiers are checked in. The first tier whose
// area list matches the address wins.
var tierPriority = []Tier{TierFree, TierCentral, TierCountry, TierWorldwide}

// AreaRate maps a tier's area keywords to a base cost in cents. An
// address matches when it contains any keyword, case-insensitively.
type AreaRate struct {
	Tier      Tier
	Areas     []string
	CostCents int64
}

// Calculator computes delivery charges and estimated delivery dates.
type Calculator struct {
	rates      map[Tier]AreaRate
	surcharges map[domain.DeliveryOption]float64
	leadDays   map[domain.DeliveryOption]int
}

// NewCalculator builds a calculator from area rates and per-option
// surcharge percentages.
func NewCalculator(rates []AreaRate, surcharges map[domain.DeliveryOption]float64, leadDays map[domain.DeliveryOption]int) *Calculator {
	byTier := make(map[Tier]AreaRate, len(rates))
	for _, r := range rates {
		byTier[r.Tier] = r
	}
	return &Calculator{rates: byTier, surcharges: surcharges, leadDays: leadDays}
}

// NewDefaultCalculator returns the stock marketplace configuration.
func NewDefaultCalculator() *Calculator {
	return NewCalculator(
		[]AreaRate{
			{Tier: TierFree, Areas: []string{"pickup-point"}, CostCents: 0},
			{Tier: TierCentral, Areas: []string{"central"}, CostCents: 500},
			{Tier: TierCountry, Areas: []string{"north", "south", "east", "west"}, CostCents: 1200},
			{Tier: TierWorldwide, Areas: []string{"international"}, CostCents: 3500},
		},
		map[domain.DeliveryOption]float64{
			domain.DeliveryStandard:  0,
			domain.DeliveryExpress:   25,
			domain.DeliveryOvernight: 60,
		},
		map[domain.DeliveryOption]int{
			domain.DeliveryStandard:  5,
			domain.DeliveryExpress:   2,
			domain.DeliveryOvernight: 1,
		},
	)
}

// Charge resolves the delivery charge for an address and option. The
// address is matched against tiers in priority order; the option's
// surcharge percentage is applied on top of the tier's base cost.
func (c *Calculator) Charge(address string, option domain.DeliveryOption) (int64, error) {
	if !domain.ValidDeliveryOption(option) {
		return 0, domain.Invalid("shipping.Charge", "unknown delivery option: "+string(option))
	}

	base, ok := c.resolveBase(address)
	if !ok {
		return 0, domain.Invalid("shipping.Charge", "no shipping tier matches the given address")
	}

	pct := c.surcharges[option]
	charged := int64(math.Round(float64(base) * (1 + pct/100)))
	return charged, nil
}

func (c *Calculator) resolveBase(address string) (int64, bool) {
	addr := strings.ToLower(address)
	for _, tier := range tierPriority {
		rate, ok := c.rates[tier]
		if !ok {
			continue
		}
		for _, area := range rate.Areas {
			if strings.Contains(addr, strings.ToLower(area)) {
				return rate.CostCents, true
			}
		}
	}
	return 0, false
}

// DeliveryDate estimates the delivery date for an option.
func (c *Calculator) DeliveryDate(option domain.DeliveryOption, now time.Time) time.Time {
	days, ok := c.leadDays[option]
	if !ok {
		days = 5
	}
	return now.AddDate(0, 0, days)
}
