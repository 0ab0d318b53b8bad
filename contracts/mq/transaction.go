package mq

import "time"

const (
	RoutingKeyTransactionRecorded = "ledger.transaction.recorded"
)

// TransactionRecordedPayload is published once per journal entry.
type TransactionRecordedPayload struct {
	TransactionID int64     `json:"transaction_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Amount        string    `json:"amount"`
	Message       string    `json:"message"`
	Ref           string    `json:"ref,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
