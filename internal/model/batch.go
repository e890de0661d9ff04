package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// batchNameLayout mirrors a locale date-time string, e.g. "5/14/2025, 3:04:05 PM".
const batchNameLayout = "1/2/2006, 3:04:05 PM"

// BatchRecord groups the orders purchased in one run.
type BatchRecord struct {
	BatchID   string `json:"batchId"`
	BatchName string `json:"batchName"`
	UserID    string `json:"userId"`
	Archived  bool   `json:"archived"`
	CreatedAt int64  `json:"createdAt"`
}

// BatchDetail is a batch together with the labels purchased in it.
type BatchDetail struct {
	Batch        BatchRecord     `json:"batch"`
	Orders       []OrderDocument `json:"orders"`
	TotalPostage decimal.Decimal `json:"totalPostage"`
}

// DefaultBatchName names a batch after the time it was uploaded.
func DefaultBatchName(t time.Time) string {
	return "Upload – " + t.Format(batchNameLayout)
}

// EpochMillis converts t to milliseconds since the Unix epoch.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// EnrichOrders stamps every order with the caller's user id, replacing any
// owner the payload carried. Every order without a batch id joins the same
// generated batch.
func EnrichOrders(orders []OrderRecord, userID, batchID, batchName string) []OrderRecord {
	enriched := make([]OrderRecord, len(orders))
	for i, o := range orders {
		o.UserID = userID
		if isBlank(o.BatchID) {
			o.BatchID = batchID
			if isBlank(o.BatchName) {
				o.BatchName = batchName
			}
		}
		enriched[i] = o
	}
	return enriched
}
