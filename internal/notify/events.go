package notify

import "time"

// Routing keys of published events.
const (
	EventTransferCreated = "transfer.created"
)

// TransferCreated is the payload of EventTransferCreated.
type TransferCreated struct {
	TransferID     int64     `json:"transfer_id"`
	FromLocationID int64     `json:"from_location_id"`
	ToLocationID   int64     `json:"to_location_id"`
	UserID         int64     `json:"user_id"`
	Lines          int       `json:"lines"`
	TotalQuantity  int       `json:"total_quantity"`
	DateCreated    time.Time `json:"date_created"`
}
