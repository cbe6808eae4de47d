package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// TransactionEventMessage notifies the reconciliation worker that a user's
// transaction set changed. It is intentionally lightweight: the worker
// re-derives the balance from the database, so only the user id matters for
// correctness; the transaction id and op are carried for logging.
type TransactionEventMessage struct {
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Op            string    `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(transactionID, userID int64, op string) *TransactionEventMessage {
	return &TransactionEventMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Op:            op,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
