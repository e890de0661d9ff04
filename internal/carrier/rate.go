package carrier

import "strings"

// Default rate preference: USPS First-Class.
const (
	DefaultCarrier = "USPS"
	DefaultService = "First"
)

// RateSelector picks the rate to purchase from a shipment's quotes.
type RateSelector interface {
	Select(rates []Rate) (Rate, bool)
}

// PreferenceSelector returns the first rate from Carrier whose service name
// contains Service. Rates are not ranked; quote order decides.
type PreferenceSelector struct {
	Carrier         string
	Service         string
	CaseInsensitive bool
}

// NewPreferenceSelector creates a selector, filling empty preferences with the defaults.
func NewPreferenceSelector(carrier, service string, caseInsensitive bool) *PreferenceSelector {
	if carrier == "" {
		carrier = DefaultCarrier
	}
	if service == "" {
		service = DefaultService
	}
	return &PreferenceSelector{
		Carrier:         carrier,
		Service:         service,
		CaseInsensitive: caseInsensitive,
	}
}

// Select returns the first matching rate, or false when none match.
func (s *PreferenceSelector) Select(rates []Rate) (Rate, bool) {
	for _, r := range rates {
		if r.Carrier == s.Carrier && s.serviceMatches(r.Service) {
			return r, true
		}
	}
	return Rate{}, false
}

func (s *PreferenceSelector) serviceMatches(service string) bool {
	if s.CaseInsensitive {
		return strings.Contains(strings.ToLower(service), strings.ToLower(s.Service))
	}
	return strings.Contains(service, s.Service)
}
