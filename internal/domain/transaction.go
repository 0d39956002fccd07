package domain

import "time"

type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDeclined TransactionStatus = "DECLINED"
	StatusError    TransactionStatus = "ERROR"
)

// StatusFilterAll matches every status in history queries.
const StatusFilterAll = "ALL"

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusDeclined || s == StatusError
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusError:
		return true
	}
	return false
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

type Transaction struct {
	ID          string            `json:"id"`
	Reference   string            `json:"reference"`
	Amount      int64             `json:"amount"`
	Status      TransactionStatus `json:"status"`
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name,omitempty"`
	Quantity    int               `json:"quantity"`
	GatewayID   string            `json:"gateway_id,omitempty"`
	StatusURL   string            `json:"status_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
}

// StatusUpdate is one observation of a transaction's gateway status,
// delivered either by the poller or by a webhook callback.
type StatusUpdate struct {
	TransactionID string            `json:"transaction_id"`
	Reference     string            `json:"reference"`
	Status        TransactionStatus `json:"status"`
	IsPending     bool              `json:"is_pending"`
	IsCompleted   bool              `json:"is_completed"`
}

// TransactionRequest is the payload for creating a gateway transaction.
type TransactionRequest struct {
	ProductID    string       `json:"product_id"`
	Quantity     int          `json:"quantity"`
	Amount       int64        `json:"amount"`
	Reference    string       `json:"reference"`
	CardNumber   string       `json:"card_number"`
	ExpiryDate   string       `json:"expiry_date"`
	CVV          string       `json:"cvv"`
	Cardholder   string       `json:"cardholder_name"`
	DocumentType string       `json:"document_type"`
	DocumentNum  string       `json:"document_number"`
	Delivery     DeliveryInfo `json:"delivery_info"`
}

type DeliveryInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

type HistoryPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	TotalPages   int           `json:"total_pages"`
	HasNext      bool          `json:"has_next"`
	HasPrev      bool          `json:"has_prev"`
}
