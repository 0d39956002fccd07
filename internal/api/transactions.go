package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

type createTransactionRequest struct {
	ProductID            string          `json:"productId"`
	Quantity             int             `json:"quantity"`
	Amount               int64           `json:"amount"`
	Reference            string          `json:"reference"`
	CardNumber           string          `json:"cardNumber"`
	ExpiryDate           string          `json:"expiryDate"`
	CVV                  string          `json:"cvv"`
	CardholderName       string          `json:"cardholderName"`
	CustomerEmail        string          `json:"customerEmail"`
	CustomerDocument     string          `json:"customerDocument"`
	CustomerDocumentType string          `json:"customerDocumentType"`
	DeliveryInfo         deliveryInfoDTO `json:"deliveryInfo"`
}

type deliveryInfoDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

type transactionData struct {
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	ProductName   string `json:"productName"`
	Quantity      int    `json:"quantity"`
	StatusURL     string `json:"statusUrl"`
}

type transactionStatusData struct {
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	IsPending     bool   `json:"isPending"`
	IsCompleted   bool   `json:"isCompleted"`
}

// CreateTransaction submits a transaction to the gateway through the
// circuit breaker. The returned transaction starts in the status reported
// by the backend, normally PENDING.
func (c *Client) CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, error) {
	return c.breaker.Execute(func() (*domain.Transaction, error) {
		body := createTransactionRequest{
			ProductID:            req.ProductID,
			Quantity:             req.Quantity,
			Amount:               req.Amount,
			Reference:            req.Reference,
			CardNumber:           req.CardNumber,
			ExpiryDate:           req.ExpiryDate,
			CVV:                  req.CVV,
			CardholderName:       req.Cardholder,
			CustomerEmail:        req.Delivery.Email,
			CustomerDocument:     req.DocumentNum,
			CustomerDocumentType: req.DocumentType,
			DeliveryInfo: deliveryInfoDTO{
				FirstName: req.Delivery.FirstName,
				LastName:  req.Delivery.LastName,
				Email:     req.Delivery.Email,
				Phone:     req.Delivery.Phone,
				Address:   req.Delivery.Address,
				City:      req.Delivery.City,
			},
		}

		var data transactionData
		if err := c.do(ctx, http.MethodPost, "/v1/transactions", nil, body, &data); err != nil {
			return nil, fmt.Errorf("create transaction failed: %w", err)
		}

		c.log.Info("transaction created",
			zap.String("transaction_id", data.TransactionID),
			zap.String("reference", data.Reference),
			zap.String("status", data.Status))

		return &domain.Transaction{
			ID:          data.TransactionID,
			Reference:   data.Reference,
			Amount:      data.Amount,
			Status:      domain.TransactionStatus(data.Status),
			ProductID:   req.ProductID,
			ProductName: data.ProductName,
			Quantity:    data.Quantity,
			StatusURL:   data.StatusURL,
			CreatedAt:   time.Now(),
		}, nil
	})
}

// TransactionStatus polls the gateway for the current status.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (domain.StatusUpdate, error) {
	var data transactionStatusData
	path := fmt.Sprintf("/v1/transactions/%s/status", url.PathEscape(transactionID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &data); err != nil {
		return domain.StatusUpdate{}, fmt.Errorf("fetch transaction status failed: %w", err)
	}

	return domain.StatusUpdate{
		TransactionID: data.TransactionID,
		Reference:     data.Reference,
		Status:        domain.TransactionStatus(data.Status),
		IsPending:     data.IsPending,
		IsCompleted:   data.IsCompleted,
	}, nil
}

type historyTransactionDTO struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	Amount      int64     `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type historyData struct {
	Transactions []historyTransactionDTO `json:"transactions"`
	Total        int                     `json:"total"`
	Page         int                     `json:"page"`
	Limit        int                     `json:"limit"`
	TotalPages   int                     `json:"totalPages"`
	HasNext      bool                    `json:"hasNext"`
	HasPrev      bool                    `json:"hasPrev"`
}

// History fetches one page of past transactions. The status filter is sent
// to the backend but callers must not rely on it being honoured there.
func (c *Client) History(ctx context.Context, page int, status string) (*domain.HistoryPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if status != "" && status != domain.StatusFilterAll {
		query.Set("status", status)
	}

	var data historyData
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/historial", query, nil, &data); err != nil {
		return nil, fmt.Errorf("fetch history failed: %w", err)
	}

	result := &domain.HistoryPage{
		Transactions: make([]domain.Transaction, 0, len(data.Transactions)),
		Total:        data.Total,
		Page:         data.Page,
		Limit:        data.Limit,
		TotalPages:   data.TotalPages,
		HasNext:      data.HasNext,
		HasPrev:      data.HasPrev,
	}
	for _, dto := range data.Transactions {
		result.Transactions = append(result.Transactions, domain.Transaction{
			ID:          dto.ID,
			Reference:   dto.Reference,
			Status:      domain.TransactionStatus(dto.Status),
			ProductName: dto.ProductName,
			Quantity:    dto.Quantity,
			Amount:      dto.Amount,
			CreatedAt:   dto.CreatedAt,
			UpdatedAt:   dto.UpdatedAt,
		})
	}
	return result, nil
}
