package shipping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanvale/souk/internal/domain"
)

func testCalculator() *Calculator {
	return NewCalculator(
		[]AreaRate{
			{Tier: TierFree, Areas: []string{"warehouse"}, CostCents: 0},
			{Tier: TierCentral, Areas: []string{"central"}, CostCents: 500},
			{Tier: TierCountry, Areas: []string{"north"}, CostCents: 1200},
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

func TestCharge(t *testing.T) {
	calc := testCalculator()

	tests := []struct {
		name    string
		address string
		option  domain.DeliveryOption
		want    int64
	}{
		{
			name:    "central zone standard has no surcharge",
			address: "12 Main St, central-zone",
			option:  domain.DeliveryStandard,
			want:    500,
		},
		{
			name:    "match is case insensitive",
			address: "12 Main St, CENTRAL district",
			option:  domain.DeliveryStandard,
			want:    500,
		},
		{
			name:    "express applies percentage surcharge",
			address: "central-zone",
			option:  domain.DeliveryExpress,
			want:    625,
		},
		{
			name:    "overnight applies larger surcharge",
			address: "central-zone",
			option:  domain.DeliveryOvernight,
			want:    800,
		},
		{
			name:    "country tier",
			address: "42 North Road",
			option:  domain.DeliveryStandard,
			want:    1200,
		},
		{
			name:    "free tier costs nothing regardless of option",
			address: "warehouse pickup",
			option:  domain.DeliveryOvernight,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Charge(tt.address, tt.option)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChargeTierPriority(t *testing.T) {
	calc := testCalculator()

	// Address matches both the free and country tiers; free wins.
	got, err := calc.Charge("warehouse, north side", domain.DeliveryStandard)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestChargeUnresolvableAddress(t *testing.T) {
	calc := testCalculator()

	_, err := calc.Charge("somewhere unmapped", domain.DeliveryStandard)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestChargeUnknownOption(t *testing.T) {
	calc := testCalculator()

	_, err := calc.Charge("central-zone", domain.DeliveryOption("same-day"))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestDeliveryDate(t *testing.T) {
	calc := testCalculator()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, 5), calc.DeliveryDate(domain.DeliveryStandard, now))
	assert.Equal(t, now.AddDate(0, 0, 2), calc.DeliveryDate(domain.DeliveryExpress, now))
	assert.Equal(t, now.AddDate(0, 0, 1), calc.DeliveryDate(domain.DeliveryOvernight, now))
}
