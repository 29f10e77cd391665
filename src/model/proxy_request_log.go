package model

import "time"

// ProxyRequestLog is one request forwarded by the proxy to WEEX.
// Credentials and bodies are never stored.
type ProxyRequestLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Method        string `gorm:"size:10" json:"method"`
	Path          string `gorm:"size:255;index" json:"path"`
	Query         string `gorm:"size:1024" json:"query"`
	EndpointGroup string `gorm:"size:20;index" json:"group"`
	Authenticated bool   `json:"authenticated"`

	Status     int     `gorm:"index" json:"status"`
	DurationMs int64   `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`

	RateLimitRemaining string `gorm:"size:32" json:"rate_limit_remaining,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ProxyRequestLog) TableName() string {
	return "proxy_request_logs"
}
