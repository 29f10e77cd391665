package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"weexgateway/src/database"
	"weexgateway/src/model"
)

const defaultSearchLimit = 20

// RequestLogSearchOptions filters journal searches. Nil fields are ignored.
type RequestLogSearchOptions struct {
	Path          *string
	Group         *string
	Status        *int
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// RequestLogRepository persists the proxy request journal.
type RequestLogRepository struct {
	db *gorm.DB
}

// NewRequestLogRepository creates a new repository instance using MainDB.
func NewRequestLogRepository() *RequestLogRepository {
	logger.WithField("component", "RequestLogRepository").
		Debug("Creating new RequestLogRepository with MainDB")

	return &RequestLogRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *RequestLogRepository) WithDB(db *gorm.DB) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Enabled reports whether a database is attached.
func (r *RequestLogRepository) Enabled() bool {
	return r != nil && r.db != nil
}

// Create inserts one journal entry.
func (r *RequestLogRepository) Create(ctx context.Context, entry *model.ProxyRequestLog) error {
	if !r.Enabled() {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "RequestLogRepository",
			"op":   "Create",
			"path": entry.Path,
		}).WithError(err).Error("Failed to create request log")
		return err
	}
	return nil
}

// Search returns journal entries newest first.
func (r *RequestLogRepository) Search(ctx context.Context, options RequestLogSearchOptions) ([]model.ProxyRequestLog, error) {
	if !r.Enabled() {
		return []model.ProxyRequestLog{}, nil
	}

	query := r.db.WithContext(ctx).Model(&model.ProxyRequestLog{})

	if options.Path != nil {
		query = query.Where("path = ?", *options.Path)
	}
	if options.Group != nil {
		query = query.Where("endpoint_group = ?", *options.Group)
	}
	if options.Status != nil {
		query = query.Where("status = ?", *options.Status)
	}
	if options.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *options.CreatedAfter)
	}
	if options.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *options.CreatedBefore)
	}

	limit := options.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var logs []model.ProxyRequestLog
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(options.Offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
