package model

import "time"

// Exception represents a gateway error that must be persisted
// for auditing and debugging.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "proxy", "cli"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "weex_client"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "PlaceOrder"

	Message string `gorm:"type:text" json:"message"` // err.Error()

	// Severity level
	Level string `gorm:"size:20;index" json:"level"` // warn | error | fatal

	// Extra context as JSON text
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
