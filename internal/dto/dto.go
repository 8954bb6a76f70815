package dto

import (
	"time"

	"order-reconciliation/internal/model"
)

type PreorderRequest struct {
	PaymentCode string    `json:"paymentCode"`
	BuyerEmail  string    `json:"buyerEmail"`
	Amount      int64     `json:"amount"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// PaymentStatusNotFound is reported for unknown payment codes and never stored.
const PaymentStatusNotFound model.PaymentStatus = "not_found"

type PaymentStatusResponse struct {
	Status     model.PaymentStatus `json:"status"`
	PaidAt     *time.Time          `json:"paidAt,omitempty"`
	CassoTxnID *int64              `json:"cassoTxnId,omitempty"`
	OrderID    string              `json:"orderId,omitempty"`
}

type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type CartProduct struct {
	ID           string `json:"_id"`
	ProductName  string `json:"productName"`
	CategoryName string `json:"categoryName"`
	Price        int64  `json:"price"`
	TotalCard    int64  `json:"totalCard"`
	OrderDate    string `json:"orderDate"`
}

type CreateOrderRequest struct {
	BuyerEmail   string        `json:"buyerEmail"`
	PaymentCode  string        `json:"paymentCode"`
	CassoTxnID   int64         `json:"cassoTxnId"`
	CartProducts []CartProduct `json:"cartProducts"`

	Name         string `json:"name"`
	Address      string `json:"Address"`
	City         string `json:"City"`
	Postcode     string `json:"Postcode"`
	EmailAddress string `json:"EmailAddress"`
	Phone        string `json:"Phone"`
	Date         string `json:"date"`
}

type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// ShipmentStatusRequest targets the order in ID, or OrderID when ID is empty.
type ShipmentStatusRequest struct {
	ID              string `json:"id"`
	ShipmentStatus  string `json:"shipmentStatus"`
	OrderStatusDate string `json:"orderStatusDate"`
	PaymentID       string `json:"paymentId"`
	OrderID         string `json:"orderId"`
}

func (r *ShipmentStatusRequest) TargetOrderID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.OrderID
}

type CancelOrderRequest struct {
	ID           string      `json:"id"` // order being cancelled
	BuyerEmail   string      `json:"buyerEmail"`
	EmailAddress string      `json:"EmailAddress"`
	OrderProduct CartProduct `json:"orderProduct"`
	Date         string      `json:"date"`
	Phone        string      `json:"Phone"`
	PaymentID    string      `json:"paymentId"`
	OrderID      string      `json:"orderId"`
}

// ClientSummary is the contact view of one order.
type ClientSummary struct {
	BuyerEmail string `json:"buyerEmail"`
	TotalPrice int64  `json:"totalPrice"`
	Name       string `json:"name"`
	Phone      string `json:"Phone"`
}

type ClientsResponse[T any] struct {
	Message string `json:"message"`
	Clients []T    `json:"clients"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ResultResponse wraps a stored record, or the reason it was not written.
type ResultResponse struct {
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type PageResponse[T any] struct {
	Products      []T   `json:"products"`
	TotalPages    int64 `json:"totalPages"`
	CurrentPage   int   `json:"currentPage"`
	TotalProducts int64 `json:"totalProducts"`
}

func NewPageResponse[T any](items []T, total int64, page PageRequest) *PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if page.Limit > 0 {
		pages = (total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	return &PageResponse[T]{
		Products:      items,
		TotalPages:    pages,
		CurrentPage:   page.Page,
		TotalProducts: total,
	}
}
