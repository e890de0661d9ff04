package carrier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tcg-labeler/internal/model"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the EasyPost v2 API root.
	DefaultBaseURL = "https://api.easypost.com/v2"

	maxResponseSize = 1 << 20
)

// Config configures the HTTP carrier client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Sender  Address
}

// httpClient implements Client against the EasyPost REST API.
type httpClient struct {
	baseURL    string
	authHeader string
	sender     Address
	http       *http.Client
	logger     zerolog.Logger
}

// NewClient creates an EasyPost client. Every request authenticates with
// cfg.APIKey as the basic-auth user and an empty password.
func NewClient(cfg Config, logger zerolog.Logger) Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpClient{
		baseURL:    baseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.APIKey+":")),
		sender:     cfg.Sender,
		http:       &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "carrier-client").Logger(),
	}
}

type createShipmentBody struct {
	Shipment ShipmentRequest `json:"shipment"`
}

type buyBody struct {
	Rate Rate `json:"rate"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewShipmentRequest builds the create-shipment payload for order.
func NewShipmentRequest(order model.OrderRecord, sender Address) ShipmentRequest {
	return ShipmentRequest{
		ToAddress: Address{
			Name:    order.Name,
			Street1: order.Address1,
			Street2: order.Address2,
			City:    order.City,
			State:   order.State,
			Zip:     order.NormalizedZip(),
			Country: CountryUS,
		},
		FromAddress: sender,
		Parcel: Parcel{
			PredefinedPackage: PredefinedPackageLetter,
			Weight:            order.SubmittedWeight(),
		},
		Options: Options{
			LabelFormat:  LabelFormatPDF,
			LabelSize:    LabelSize4x6,
			Machinable:   !order.NonMachinable,
			PrintCustom1: order.OrderNumber,
		},
	}
}

// CreateShipment registers a shipment for order and returns its rate quotes.
func (c *httpClient) CreateShipment(ctx context.Context, order model.OrderRecord) (*Shipment, error) {
	body := createShipmentBody{Shipment: NewShipmentRequest(order, c.sender)}

	var shipment Shipment
	if err := c.post(ctx, "/shipments", body, &shipment); err != nil {
		return nil, fmt.Errorf("failed to create shipment for order %q: %w", order.OrderNumber, err)
	}
	if shipment.ID == "" {
		return nil, fmt.Errorf("failed to create shipment for order %q: %w: missing shipment id", order.OrderNumber, ErrInvalidResponse)
	}

	c.logger.Debug().
		Str("order_number", order.OrderNumber).
		Str("shipment_id", shipment.ID).
		Int("rates", len(shipment.Rates)).
		Msg("shipment created")

	return &shipment, nil
}

// Buy purchases rate for the shipment.
func (c *httpClient) Buy(ctx context.Context, shipmentID string, rate Rate) (*Purchase, error) {
	path := "/shipments/" + url.PathEscape(shipmentID) + "/buy"

	var purchase Purchase
	if err := c.post(ctx, path, buyBody{Rate: rate}, &purchase); err != nil {
		return nil, fmt.Errorf("failed to buy rate %s for shipment %s: %w", rate.ID, shipmentID, err)
	}

	if purchase.LabelURL() == "" {
		c.logger.Error().
			Str("shipment_id", shipmentID).
			Str("tracking_code", purchase.TrackingCode).
			Msg("purchase response has no label url")
		return nil, fmt.Errorf("failed to buy rate %s for shipment %s: %w", rate.ID, shipmentID, ErrIncompleteLabel)
	}

	c.logger.Debug().
		Str("shipment_id", shipmentID).
		Str("tracking_code", purchase.TrackingCode).
		Msg("label purchased")

	return &purchase, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Code = parsed.Error.Code
		apiErr.Message = parsed.Error.Message
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}

// IsTransport reports whether err means the carrier could not be reached or
// answered with something other than a usable success.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrInvalidResponse) || errors.As(err, &apiErr)
}
