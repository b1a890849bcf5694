package events

import (
	"encoding/json"
	"time"
)

// Ledger event operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LedgerEvent announces a committed ledger mutation. It carries only
// identifiers; consumers re-read current state from storage.
type LedgerEvent struct {
	OwnerID       string    `json:"owner_id"`
	Op            string    `json:"op"`
	TransactionID int64     `json:"transaction_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(owner, op string, transactionID int64, year, month int) LedgerEvent {
	return LedgerEvent{
		OwnerID:       owner,
		Op:            op,
		TransactionID: transactionID,
		Year:          year,
		Month:         month,
		Timestamp:     time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
