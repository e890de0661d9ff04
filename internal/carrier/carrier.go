// Package carrier talks to the EasyPost shipping API: it creates shipments,
// picks the rate to buy and purchases labels.
package carrier

import (
	"context"
	"errors"
	"fmt"

	"tcg-labeler/internal/model"

	"github.com/shopspring/decimal"
)

// Fixed shipment options for every label.
const (
	PredefinedPackageLetter = "Letter"
	LabelFormatPDF          = "PDF"
	LabelSize4x6            = "4x6"
	CountryUS               = "US"
)

var (
	// ErrTransport wraps failures to reach the carrier at all.
	ErrTransport = errors.New("carrier transport error")
	// ErrInvalidResponse is returned when a response body cannot be decoded.
	ErrInvalidResponse = errors.New("carrier returned an invalid response")
	// ErrIncompleteLabel is returned when a purchase response has no label URL.
	ErrIncompleteLabel = errors.New("carrier purchase returned no label")
	// ErrNoEligibleRate is returned by callers when the selector finds nothing.
	ErrNoEligibleRate = errors.New("no eligible rate")
)

// APIError is a non-2xx response from the carrier.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("carrier responded %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("carrier responded %d: %s", e.StatusCode, e.Message)
}

// Address is an EasyPost address object.
type Address struct {
	Name    string `json:"name,omitempty"`
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Parcel describes the package being shipped. Weight is in ounces.
type Parcel struct {
	PredefinedPackage string  `json:"predefined_package"`
	Weight            float64 `json:"weight"`
}

// Options are the shipment options sent with every request.
type Options struct {
	LabelFormat  string `json:"label_format"`
	LabelSize    string `json:"label_size"`
	Machinable   bool   `json:"machinable"`
	PrintCustom1 string `json:"print_custom_1"`
}

// ShipmentRequest is the body of a create-shipment call.
type ShipmentRequest struct {
	ToAddress   Address `json:"to_address"`
	FromAddress Address `json:"from_address"`
	Parcel      Parcel  `json:"parcel"`
	Options     Options `json:"options"`
}

// Rate is one purchasable service quoted for a shipment.
type Rate struct {
	ID           string          `json:"id"`
	ShipmentID   string          `json:"shipment_id,omitempty"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	Rate         decimal.Decimal `json:"rate"`
	Currency     string          `json:"currency,omitempty"`
	DeliveryDays *int            `json:"delivery_days,omitempty"`
}

// Shipment is a created, not yet purchased shipment with its quotes.
type Shipment struct {
	ID    string `json:"id"`
	Rates []Rate `json:"rates"`
}

// PostageLabel points at the printable label.
type PostageLabel struct {
	LabelURL string `json:"label_url"`
}

// Purchase is the result of buying a rate.
type Purchase struct {
	ID           string        `json:"id"`
	TrackingCode string        `json:"tracking_code"`
	PostageLabel *PostageLabel `json:"postage_label"`
	ToAddress    *Address      `json:"to_address"`
	SelectedRate *Rate         `json:"selected_rate"`
}

// LabelURL returns the label URL or an empty string.
func (p *Purchase) LabelURL() string {
	if p == nil || p.PostageLabel == nil {
		return ""
	}
	return p.PostageLabel.LabelURL
}

// Client creates and purchases shipments for orders.
type Client interface {
	// CreateShipment registers a shipment for order and returns its rate quotes.
	CreateShipment(ctx context.Context, order model.OrderRecord) (*Shipment, error)

	// Buy purchases rate for the shipment. A response without a label URL
	// fails with ErrIncompleteLabel.
	Buy(ctx context.Context, shipmentID string, rate Rate) (*Purchase, error)
}
