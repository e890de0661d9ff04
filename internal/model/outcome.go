package model

// Outcome classifies what happened to a single order in a purchase run.
type Outcome string

const (
	OutcomePurchased       Outcome = "purchased"
	OutcomeTransportError  Outcome = "transport_error"
	OutcomeNoEligibleRate  Outcome = "no_eligible_rate"
	OutcomeIncompleteLabel Outcome = "incomplete_label"
	OutcomePersistFailed   Outcome = "persist_failed"
	OutcomeUnexpectedError Outcome = "unexpected_error"
)

// Succeeded reports whether the order produced a label result.
func (o Outcome) Succeeded() bool {
	return o == OutcomePurchased
}

// OrderOutcome is the per-order line of a BatchReport.
type OrderOutcome struct {
	Index        int     `json:"index"`
	OrderNumber  string  `json:"orderNumber"`
	Name         string  `json:"name"`
	Outcome      Outcome `json:"outcome"`
	Reason       string  `json:"reason,omitempty"`
	ShipmentID   string  `json:"shipmentId,omitempty"`
	TrackingCode string  `json:"trackingCode,omitempty"`
}

// BatchReport is the full result of a purchase run. Results only holds the
// purchased labels, so its positions do not line up with the input orders.
type BatchReport struct {
	Results  []LabelResult  `json:"results"`
	Outcomes []OrderOutcome `json:"outcomes"`
}

// Count returns how many orders ended with the given outcome.
func (r *BatchReport) Count(outcome Outcome) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}
