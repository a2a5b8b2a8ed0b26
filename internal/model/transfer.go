package model

import (
	"fmt"
	"time"
)

// Transfer moves quantities of items from one location to another.
type Transfer struct {
	ID             int64          `json:"id"`
	FromLocationID int64          `json:"from_location_id"`
	ToLocationID   int64          `json:"to_location_id"`
	UserID         int64          `json:"user_id"`
	DateCreated    time.Time      `json:"date_created"`
	Completed      bool           `json:"completed"`
	Items          []TransferItem `json:"items"`

	// Joined fields (not always populated).
	FromLocationName string `json:"from_location_name,omitempty"`
	ToLocationName   string `json:"to_location_name,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
}

// TransferItem is one persisted line of a transfer.
type TransferItem struct {
	ID         int64 `json:"id"`
	TransferID int64 `json:"transfer_id"`
	ItemID     int64 `json:"item_id"`
	Quantity   int   `json:"quantity"`

	// Joined fields (not always populated).
	ItemName string `json:"item_name,omitempty"`
}

// TotalQuantity sums the quantities of all lines.
func (t *Transfer) TotalQuantity() int {
	total := 0
	for _, it := range t.Items {
		total += it.Quantity
	}
	return total
}

// SameLocation reports whether the transfer starts and ends at one location.
// Such transfers are allowed and simply move nothing.
func (t *Transfer) SameLocation() bool {
	return t.FromLocationID == t.ToLocationID
}

// LineItem is a requested (item, quantity) pair for a transfer.
type LineItem struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// Valid reports whether the line names an item and carries a positive quantity.
// Invalid lines are dropped, not rejected.
func (l LineItem) Valid() bool {
	return l.ItemID > 0 && l.Quantity > 0
}

// FilterLines keeps the valid lines whose item exists, preserving order and
// duplicates.
func FilterLines(lines []LineItem, itemExists func(id int64) bool) []LineItem {
	kept := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		if !l.Valid() || !itemExists(l.ItemID) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// TransferFilter selects transfers by completion state.
type TransferFilter string

// Transfer filters.
const (
	FilterAll          TransferFilter = "all"
	FilterCompleted    TransferFilter = "completed"
	FilterNotCompleted TransferFilter = "not_completed"
)

// ParseTransferFilter parses a filter name. An empty name selects
// FilterNotCompleted.
func ParseTransferFilter(s string) (TransferFilter, error) {
	switch TransferFilter(s) {
	case "":
		return FilterNotCompleted, nil
	case FilterAll, FilterCompleted, FilterNotCompleted:
		return TransferFilter(s), nil
	}
	return "", fmt.Errorf("%w: unknown transfer filter %q", ErrValidation, s)
}

// ReportRow is one aggregated line of a transfer report.
type ReportRow struct {
	FromLocation  string `json:"from_location"`
	ToLocation    string `json:"to_location"`
	Item          string `json:"item"`
	TotalQuantity int    `json:"total_quantity"`
}
