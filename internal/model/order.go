package model

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// UnknownUserID is stored when an order reaches the purchase run without an owner.
const UnknownUserID = "unknown"

// OrderRecord is one shipment to create, parsed from a marketplace export row
// and optionally adjusted by the operator before purchase.
type OrderRecord struct {
	Name           string  `json:"name"`
	Address1       string  `json:"address1"`
	Address2       string  `json:"address2"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Zip            string  `json:"zip"`
	Weight         float64 `json:"weight"`
	OrderNumber    string  `json:"orderNumber"`
	NonMachinable  bool    `json:"nonMachinable"`
	ShippingShield bool    `json:"shippingShield"`
	Notes          string  `json:"notes"`

	// Set by the caller before a purchase run.
	UserID    string `json:"userId,omitempty"`
	BatchID   string `json:"batchId,omitempty"`
	BatchName string `json:"batchName,omitempty"`
}

// NormalizedZip returns the postal code with every non-digit removed.
func (o OrderRecord) NormalizedZip() string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, o.Zip)
}

// SubmittedWeight returns the weight sent to the carrier, never below one.
func (o OrderRecord) SubmittedWeight() float64 {
	if math.IsNaN(o.Weight) || math.IsInf(o.Weight, 0) || o.Weight < 1 {
		return 1
	}
	return o.Weight
}

// OwnerID returns the user id to store, falling back to UnknownUserID.
func (o OrderRecord) OwnerID() string {
	if strings.TrimSpace(o.UserID) == "" {
		return UnknownUserID
	}
	return o.UserID
}

// LabelResult is what the caller gets back for each purchased label.
type LabelResult struct {
	LabelURL     string `json:"labelUrl"`
	TrackingCode string `json:"trackingCode"`
}

// OrderDocument is the durable record of one purchased label.
type OrderDocument struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	BatchID      string          `json:"batchId"`
	BatchName    string          `json:"batchName"`
	OrderNumber  string          `json:"orderNumber"`
	TrackingCode string          `json:"trackingCode"`
	LabelURL     string          `json:"labelUrl"`
	ToName       string          `json:"toName"`
	Carrier      string          `json:"carrier,omitempty"`
	Service      string          `json:"service,omitempty"`
	Postage      decimal.Decimal `json:"postage"`
	CreatedAt    int64           `json:"createdAt"`
}

// isBlank reports whether s holds only whitespace.
func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
