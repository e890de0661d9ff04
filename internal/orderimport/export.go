package orderimport

import (
	"encoding/csv"
	"fmt"
	"io"

	"tcg-labeler/internal/model"
)

// TrackingCarrier is the carrier name written on every tracking upload row.
const TrackingCarrier = "USPS"

// TrackingFilename is the download name of the tracking upload file.
const TrackingFilename = "tcgplayer_tracking_upload.csv"

var trackingHeader = []string{"Order #", "Tracking #", "Carrier"}

// WriteTrackingCSV writes the marketplace tracking upload file, one row per
// purchased label. Each row is built from a single stored document, so the
// order number always matches its own tracking code.
func WriteTrackingCSV(w io.Writer, docs []model.OrderDocument) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(trackingHeader); err != nil {
		return fmt.Errorf("failed to write tracking header: %w", err)
	}

	for _, doc := range docs {
		if err := cw.Write([]string{doc.OrderNumber, doc.TrackingCode, TrackingCarrier}); err != nil {
			return fmt.Errorf("failed to write tracking row for order %s: %w", doc.OrderNumber, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush tracking csv: %w", err)
	}
	return nil
}
