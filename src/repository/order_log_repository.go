package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"weexgateway/src/database"
	"weexgateway/src/model"
)

// OrderLogRepository tracks orders sent to WEEX.
type OrderLogRepository struct {
	db *gorm.DB
}

func NewOrderLogRepository() *OrderLogRepository {
	return &OrderLogRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *OrderLogRepository) WithDB(db *gorm.DB) *OrderLogRepository {
	return &OrderLogRepository{db: db}
}

// Create inserts a new order log. The entry gets its ID and timestamps filled in.
func (r *OrderLogRepository) Create(ctx context.Context, entry *model.OrderLog) error {
	logger.WithFields(map[string]interface{}{
		"repo":       "OrderLogRepository",
		"op":         "Create",
		"symbol":     entry.Symbol,
		"client_oid": entry.ClientOID,
		"size":       entry.Size,
	}).Debug("Creating order log")

	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// UpdateStatus sets the outcome of the order identified by clientOID.
func (r *OrderLogRepository) UpdateStatus(ctx context.Context, clientOID, status, exchangeOrderID string, errMsg *string) error {
	if r.db == nil {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.OrderLog{}).
		Where("client_oid = ?", clientOID).
		Updates(map[string]interface{}{
			"status":            status,
			"exchange_order_id": exchangeOrderID,
			"error_message":     errMsg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "OrderLogRepository",
		"client_oid": clientOID,
		"status":     status,
	}).Info("Order log updated")
	return nil
}

// FindByClientOID returns (nil, nil) when no order matches.
func (r *OrderLogRepository) FindByClientOID(ctx context.Context, clientOID string) (*model.OrderLog, error) {
	if r.db == nil {
		return nil, nil
	}

	var entry model.OrderLog
	err := r.db.WithContext(ctx).Where("client_oid = ?", clientOID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
