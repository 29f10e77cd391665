// model/order_log.go
package model

import "time"

// OrderLog status values, following the lifecycle of one order sent to WEEX.
const (
	OrderLogStatusPending  = "pending"
	OrderLogStatusAccepted = "accepted"
	OrderLogStatusRejected = "rejected"
	OrderLogStatusError    = "error"
	OrderLogStatusClosed   = "closed"
)

// OrderLog stores every order the gateway sends to WEEX and how it ended.
type OrderLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientOID string `gorm:"size:64;uniqueIndex" json:"client_oid"`
	Symbol    string `gorm:"size:100;index" json:"symbol"`
	Type      string `gorm:"size:10" json:"type"`       // 1 open long, 2 open short, 3 close long, 4 close short
	OrderType string `gorm:"size:10" json:"order_type"` // execution code
	Size      string `gorm:"size:50" json:"size"`
	Price     string `gorm:"size:50" json:"price"`
	Notional  string `gorm:"size:50" json:"notional"`

	ExchangeOrderID string  `gorm:"size:255" json:"exchange_order_id"`
	Status          string  `gorm:"size:50;not null" json:"status"` // see OrderLogStatus* constants
	ErrorMessage    *string `json:"error_message,omitempty"`

	RequestedAt time.Time `json:"requested_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName allows you to control the exact table name for order logs.
func (OrderLog) TableName() string {
	return "order_logs"
}
