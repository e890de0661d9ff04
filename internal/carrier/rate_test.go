package carrier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPreferenceSelector_Select(t *testing.T) {
	tests := []struct {
		name            string
		rates           []Rate
		caseInsensitive bool
		expectedID      string
		expectFound     bool
	}{
		{
			name: "First matching USPS First wins",
			rates: []Rate{
				{ID: "r1", Carrier: "UPS", Service: "Ground"},
				{ID: "r2", Carrier: "USPS", Service: "Priority"},
				{ID: "r3", Carrier: "USPS", Service: "First"},
				{ID: "r4", Carrier: "USPS", Service: "FirstClassPackageInternationalService"},
			},
			expectedID:  "r3",
			expectFound: true,
		},
		{
			name: "Order decides, not price",
			rates: []Rate{
				{ID: "expensive", Carrier: "USPS", Service: "FirstClassMailInternational", Rate: decimal.RequireFromString("9.10")},
				{ID: "cheap", Carrier: "USPS", Service: "First", Rate: decimal.RequireFromString("0.73")},
			},
			expectedID:  "expensive",
			expectFound: true,
		},
		{
			name: "No USPS rate",
			rates: []Rate{
				{ID: "r1", Carrier: "UPS", Service: "First"},
				{ID: "r2", Carrier: "FedEx", Service: "FIRST_OVERNIGHT"},
			},
			expectFound: false,
		},
		{
			name: "Carrier comparison is exact",
			rates: []Rate{
				{ID: "r1", Carrier: "usps", Service: "First"},
			},
			expectFound: false,
		},
		{
			name: "Service match is case sensitive by default",
			rates: []Rate{
				{ID: "r1", Carrier: "USPS", Service: "first"},
			},
			expectFound: false,
		},
		{
			name: "Case insensitive service match when enabled",
			rates: []Rate{
				{ID: "r1", Carrier: "USPS", Service: "GroundAdvantage"},
				{ID: "r2", Carrier: "USPS", Service: "first"},
			},
			caseInsensitive: true,
			expectedID:      "r2",
			expectFound:     true,
		},
		{
			name:        "Empty rate list",
			rates:       nil,
			expectFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewPreferenceSelector("", "", tt.caseInsensitive)

			rate, found := selector.Select(tt.rates)

			assert.Equal(t, tt.expectFound, found)
			assert.Equal(t, tt.expectedID, rate.ID)
		})
	}
}

func TestPreferenceSelector_Deterministic(t *testing.T) {
	rates := []Rate{
		{ID: "a", Carrier: "USPS", Service: "Express"},
		{ID: "b", Carrier: "USPS", Service: "First"},
		{ID: "c", Carrier: "USPS", Service: "First"},
	}
	selector := NewPreferenceSelector(DefaultCarrier, DefaultService, false)

	for i := 0; i < 10; i++ {
		rate, found := selector.Select(rates)
		assert.True(t, found)
		assert.Equal(t, "b", rate.ID)
	}
}

func TestNewPreferenceSelector_CustomPreference(t *testing.T) {
	selector := NewPreferenceSelector("USPS", "GroundAdvantage", false)

	rate, found := selector.Select([]Rate{
		{ID: "first", Carrier: "USPS", Service: "First"},
		{ID: "ga", Carrier: "USPS", Service: "GroundAdvantage"},
	})

	assert.True(t, found)
	assert.Equal(t, "ga", rate.ID)
}
