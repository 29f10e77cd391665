package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"weexgateway/src/auth"
	"weexgateway/src/model"
	"weexgateway/src/repository"
)

type orderLogFinder interface {
	FindByClientOID(ctx context.Context, clientOID string) (*model.OrderLog, error)
}

// GetOrderLogHandler returns the order log for the {clientOid} URL parameter.
func GetOrderLogHandler(repo orderLogFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if caller, ok := auth.GetCallerFromContext(r.Context()); !ok || caller == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		clientOID := chi.URLParam(r, "clientOid")
		if clientOID == "" {
			http.Error(w, "missing clientOid", http.StatusBadRequest)
			return
		}

		entry, err := repo.FindByClientOID(r.Context(), clientOID)
		if err != nil {
			logger.WithError(err).WithField("client_oid", clientOID).Error("failed to load order log")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if entry == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		writeJSON(w, entry)
	}
}

func DefaultGetOrderLogHandler() http.HandlerFunc {
	return GetOrderLogHandler(repository.NewOrderLogRepository())
}
