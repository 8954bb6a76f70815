package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusExpired PaymentStatus = "expired"
	// PaymentStatusConsumed marks a paid payment that has been turned into an order.
	PaymentStatusConsumed PaymentStatus = "consumed"
)

// PendingPayment is a payment intent awaiting bank confirmation. Rows are never deleted.
type PendingPayment struct {
	PaymentCode     string        `gorm:"primaryKey;size:64;not null" json:"paymentCode"` // caller chosen correlation id
	BuyerEmail      string        `gorm:"size:255;index;not null" json:"buyerEmail"`
	Amount          int64         `gorm:"not null" json:"amount"`
	Status          PaymentStatus `gorm:"size:16;index;not null" json:"status"`
	CassoTxnID      *int64        `json:"cassoTxnId,omitempty"`
	PaidAt          *time.Time    `json:"paidAt,omitempty"`
	ConsumedOrderID string        `gorm:"size:64" json:"consumedOrderId,omitempty"`
	Version         int64         `gorm:"not null;default:1" json:"-"`
	ExpiresAt       time.Time     `gorm:"not null" json:"expiresAt"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// EffectiveStatus reports the status as of now: a pending payment past its
// expiry is expired even before the transition has been written.
func (p *PendingPayment) EffectiveStatus(now time.Time) PaymentStatus {
	if p.Status == PaymentStatusPending && now.After(p.ExpiresAt) {
		return PaymentStatusExpired
	}
	return p.Status
}

// WebhookEvent records every bank transaction that moved a payment to paid.
type WebhookEvent struct {
	CassoTxnID      int64  `gorm:"primaryKey;autoIncrement:false"`
	PaymentCode     string `gorm:"size:64;index;not null"`
	Amount          int64  `gorm:"not null"`
	TransactionTime string `gorm:"size:64"` // raw value as sent by the bank
	AccountNumber   string `gorm:"size:64"`
	BankName        string `gorm:"size:128"`
	ProcessedAt     time.Time
	CreatedAt       time.Time
}

// ProductStock is the sellable quantity of a catalog product. The catalog owns
// the rows; orders take stock out and approved cancellations put it back.
type ProductStock struct {
	ProductID string `gorm:"primaryKey;size:64;not null"`
	Quantity  int64  `gorm:"not null"`
	UpdatedAt time.Time
}
