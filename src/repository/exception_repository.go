package repository

import (
	"context"
	"encoding/json"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"weexgateway/src/database"
	"weexgateway/src/model"
)

// ExceptionRepository handles persistence of gateway exceptions.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new repository instance on MainDB.
func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

func NewExceptionRepositoryWithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new exception in the database.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"service": exc.Service,
		"module":  exc.Module,
		"method":  exc.Method,
		"level":   exc.Level,
	}).Error("Persisting gateway exception")

	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(exc).Error
}

// Record builds and persists an exception from err. Failures to persist are only logged.
func (r *ExceptionRepository) Record(ctx context.Context, service, module, method string, err error, fields map[string]interface{}) {
	if err == nil {
		return
	}

	exc := &model.Exception{
		Service: service,
		Module:  module,
		Method:  method,
		Message: err.Error(),
		Level:   "error",
	}
	if len(fields) > 0 {
		if b, mErr := json.Marshal(fields); mErr == nil {
			exc.Context = string(b)
		}
	}

	if cErr := r.Create(ctx, exc); cErr != nil {
		logger.WithError(cErr).Warn("Failed to persist exception")
	}
}
