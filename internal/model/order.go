package model

import "time"

const (
	// ShipmentStatusPaid is the status every order starts in.
	ShipmentStatusPaid      = "paid"
	ShipmentStatusPending   = "pending"
	ShipmentStatusCancelled = "order cancelled"
)

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
)

// LineItem is one cart line frozen into an order. JSON names follow the storefront payload.
type LineItem struct {
	ID           string    `json:"_id"`
	ProductName  string    `json:"productName"`
	CategoryName string    `json:"categoryName"`
	Price        int64     `json:"price"`
	Quantity     int64     `json:"totalCard"`
	OrderDate    time.Time `json:"orderDate"`
}

func (l LineItem) Subtotal() int64 {
	return l.Price * l.Quantity
}

type ShipmentStatusEntry struct {
	ShipmentStatus  string `json:"shipmentStatus"`
	OrderStatusDate string `json:"orderStatusDate"`
	PaymentID       string `json:"paymentId"`
	OrderID         string `json:"orderId"`
}

type Order struct {
	OrderID             string                `gorm:"primaryKey;size:64;not null" json:"orderId"`
	BuyerEmail          string                `gorm:"size:255;index;not null" json:"buyerEmail"`
	Name                string                `gorm:"size:255" json:"name"`
	Address             string                `gorm:"size:512" json:"Address"`
	City                string                `gorm:"size:128" json:"City"`
	Postcode            string                `gorm:"size:32" json:"Postcode"`
	EmailAddress        string                `gorm:"size:255" json:"EmailAddress"`
	Phone               string                `gorm:"size:64" json:"Phone"`
	Date                time.Time             `gorm:"index" json:"date"`
	TotalPrice          int64                 `gorm:"not null" json:"totalPrice"`
	OrderProducts       []LineItem            `gorm:"serializer:json;type:text" json:"orderProducts"`
	PaymentID           string                `gorm:"size:64;index" json:"paymentId"`
	PaymentCode         string                `gorm:"size:64;uniqueIndex;not null" json:"paymentCode"`
	CassoTxnID          int64                 `json:"cassoTxnId"`
	PaymentDate         *time.Time            `json:"paymentDate,omitempty"`
	ShipmentStatus      string                `gorm:"size:64;index;not null" json:"shipmentStatus"`
	OrderStatusDate     string                `gorm:"size:64" json:"orderStatusDate,omitempty"`
	ShipmentStatusArray []ShipmentStatusEntry `gorm:"serializer:json;type:text" json:"shipmentStatusArray"`
	Version             int64                 `gorm:"not null;default:1" json:"-"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// HasShipmentStatus reports whether status was ever applied to the order.
func (o *Order) HasShipmentStatus(status string) bool {
	for _, entry := range o.ShipmentStatusArray {
		if entry.ShipmentStatus == status {
			return true
		}
	}
	return false
}

// LineItemIndex returns the position of the first line for productID, or -1.
func (o *Order) LineItemIndex(productID string) int {
	for i, item := range o.OrderProducts {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// CancelOrder is a customer request to remove one line from an order and refund it.
type CancelOrder struct {
	ID           string       `gorm:"primaryKey;size:64;not null" json:"_id"`
	BuyerEmail   string       `gorm:"size:255;index;not null" json:"buyerEmail"`
	EmailAddress string       `gorm:"size:255" json:"EmailAddress"`
	Phone        string       `gorm:"size:64" json:"Phone"`
	Date         string       `gorm:"size:64" json:"date"`
	ProductID    string       `gorm:"size:64;index;not null" json:"productId"` // key of the targeted order
	ProductName  string       `gorm:"size:255" json:"productName"`
	ReturnAmount int64        `gorm:"not null" json:"returnAmount"`
	PaymentID    string       `gorm:"size:64" json:"paymentId"`
	OrderID      string       `gorm:"size:64;index" json:"orderId"`
	ReturnStatus ReturnStatus `gorm:"size:16;index;not null" json:"returnStatus"`
	OrderProduct LineItem     `gorm:"serializer:json;type:text" json:"orderProduct"`
	Version      int64        `gorm:"not null;default:1" json:"-"`
	CreatedAt    time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
