package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"weexgateway/src/auth"
	"weexgateway/src/catalog"
	"weexgateway/src/model"
	"weexgateway/src/repository"

	logger "github.com/sirupsen/logrus"
)

const maxPageSize = 200

type requestLogSearcher interface {
	Search(ctx context.Context, options repository.RequestLogSearchOptions) ([]model.ProxyRequestLog, error)
}

// SearchRequestLogsHandler returns a handler that lists journaled proxy requests.
// Supports pagination and filters (path, group, status, createdFrom, createdTo).
func SearchRequestLogsHandler(repo requestLogSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.GetCallerFromContext(r.Context())
		if !ok || caller == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		query := r.URL.Query()

		var path *string
		if pathParam := query.Get("path"); pathParam != "" {
			path = &pathParam
		}

		var group *string
		if groupParam := query.Get("group"); groupParam != "" {
			switch catalog.Group(groupParam) {
			case catalog.GroupMarket, catalog.GroupAccount, catalog.GroupOrder, catalog.GroupUnknown:
			default:
				http.Error(w, "invalid group", http.StatusBadRequest)
				return
			}
			group = &groupParam
		}

		var status *int
		if statusParam := query.Get("status"); statusParam != "" {
			parsed, err := strconv.Atoi(statusParam)
			if err != nil || parsed < 100 || parsed > 599 {
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			status = &parsed
		}

		var createdFrom, createdTo *time.Time
		if createdFromParam := query.Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				http.Error(w, "invalid createdFrom", http.StatusBadRequest)
				return
			}
			createdFrom = &parsed
		}

		if createdToParam := query.Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				http.Error(w, "invalid createdTo", http.StatusBadRequest)
				return
			}
			createdTo = &parsed
		}

		page := 1
		if pageParam := query.Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 20
		if sizeParam := query.Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 || parsedSize > maxPageSize {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}

		if page > math.MaxInt/pageSize {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		offset := (page - 1) * pageSize

		logs, err := repo.Search(r.Context(), repository.RequestLogSearchOptions{
			Path:          path,
			Group:         group,
			Status:        status,
			CreatedAfter:  createdFrom,
			CreatedBefore: createdTo,
			Limit:         pageSize,
			Offset:        offset,
		})
		if err != nil {
			logger.WithError(err).Error("failed to search request logs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logs)
	}
}

// DefaultSearchRequestLogsHandler wires the handler to the production repository implementation.
func DefaultSearchRequestLogsHandler() http.HandlerFunc {
	return SearchRequestLogsHandler(repository.NewRequestLogRepository())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
