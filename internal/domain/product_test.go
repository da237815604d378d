package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVariantSlug(t *testing.T) {
	tests := []struct {
		name string
		a    map[string]string
		b    map[string]string
		same bool
	}{
		{
			name: "identical attributes collide",
			a:    map[string]string{"color": "black", "storage": "256gb"},
			b:    map[string]string{"color": "black", "storage": "256gb"},
			same: true,
		},
		{
			name: "key order does not matter",
			a:    map[string]string{"storage": "256gb", "color": "black"},
			b:    map[string]string{"color": "black", "storage": "256gb"},
			same: true,
		},
		{
			name: "case and whitespace are normalized",
			a:    map[string]string{"Color": "Space Gray"},
			b:    map[string]string{"color": "space gray"},
			same: true,
		},
		{
			name: "different values diverge",
			a:    map[string]string{"color": "black"},
			b:    map[string]string{"color": "white"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, VariantSlug(tt.a), VariantSlug(tt.b))
			} else {
				assert.NotEqual(t, VariantSlug(tt.a), VariantSlug(tt.b))
			}
		})
	}
}

func TestVariantSlugFormat(t *testing.T) {
	slug := VariantSlug(map[string]string{"storage": "256GB", "color": "Black"})
	assert.Equal(t, "color-black_storage-256gb", slug)
}

func TestOfferActiveAt(t *testing.T) {
	now := time.Now()
	offer := &Offer{
		PercentOff: 10,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(time.Hour),
		IsActive:   true,
	}

	assert.True(t, offer.ActiveAt(now))
	assert.False(t, offer.ActiveAt(now.Add(2*time.Hour)), "expired offer")
	assert.False(t, offer.ActiveAt(now.Add(-2*time.Hour)), "offer not started")

	offer.IsActive = false
	assert.False(t, offer.ActiveAt(now), "disabled offer")

	var nilOffer *Offer
	assert.False(t, nilOffer.ActiveAt(now))
}
