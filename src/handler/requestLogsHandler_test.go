package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"weexgateway/src/auth"
	"weexgateway/src/model"
	"weexgateway/src/repository"

	"github.com/stretchr/testify/assert"
)

type mockRequestLogSearcher struct {
	logs          []model.ProxyRequestLog
	err           error
	path          *string
	group         *string
	status        *int
	createdAfter  *time.Time
	createdBefore *time.Time
	limit         int
	offset        int
	calledCount   int
}

func (m *mockRequestLogSearcher) Search(ctx context.Context, options repository.RequestLogSearchOptions) ([]model.ProxyRequestLog, error) {
	m.calledCount++
	m.path = options.Path
	m.group = options.Group
	m.status = options.Status
	m.createdAfter = options.CreatedAfter
	m.createdBefore = options.CreatedBefore
	m.limit = options.Limit
	m.offset = options.Offset
	return m.logs, m.err
}

func withCaller(req *http.Request) *http.Request {
	return req.WithContext(auth.WithCaller(req.Context(), &auth.Caller{RemoteAddr: "127.0.0.1"}))
}

func TestSearchRequestLogsHandler_Unauthorized(t *testing.T) {
	handler := SearchRequestLogsHandler(&mockRequestLogSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/_proxy/requests", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestSearchRequestLogsHandler_InvalidParams(t *testing.T) {
	cases := []string{
		"/_proxy/requests?status=abc",
		"/_proxy/requests?status=42",
		"/_proxy/requests?group=spot",
		"/_proxy/requests?page=0",
		"/_proxy/requests?pageSize=-1",
		"/_proxy/requests?pageSize=1000",
		"/_proxy/requests?page=9223372036854775807&pageSize=200",
		"/_proxy/requests?page=46116860184273880&pageSize=200",
		"/_proxy/requests?createdFrom=invalid",
		"/_proxy/requests?createdTo=2024-13-01",
	}

	for _, target := range cases {
		t.Run(target, func(t *testing.T) {
			mockRepo := &mockRequestLogSearcher{}
			rr := httptest.NewRecorder()

			SearchRequestLogsHandler(mockRepo).ServeHTTP(rr, withCaller(httptest.NewRequest(http.MethodGet, target, nil)))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			if mockRepo.calledCount != 0 {
				t.Fatalf("repository must not be called on invalid input")
			}
		})
	}
}

func TestSearchRequestLogsHandler_RepoError(t *testing.T) {
	mockRepo := &mockRequestLogSearcher{err: assert.AnError}
	handler := SearchRequestLogsHandler(mockRepo)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCaller(httptest.NewRequest(http.MethodGet, "/_proxy/requests", nil)))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}

	if mockRepo.calledCount != 1 {
		t.Fatalf("expected repository to be called once, got %d", mockRepo.calledCount)
	}
}

func TestSearchRequestLogsHandler_Defaults(t *testing.T) {
	mockRepo := &mockRequestLogSearcher{logs: []model.ProxyRequestLog{}}

	rr := httptest.NewRecorder()
	SearchRequestLogsHandler(mockRepo).ServeHTTP(rr, withCaller(httptest.NewRequest(http.MethodGet, "/_proxy/requests", nil)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, mockRepo.limit)
	assert.Equal(t, 0, mockRepo.offset)
	assert.Nil(t, mockRepo.path)
	assert.Nil(t, mockRepo.status)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestSearchRequestLogsHandler_Success(t *testing.T) {
	logs := []model.ProxyRequestLog{{ID: 1, Method: "GET", Path: "/capi/v2/market/ticker", EndpointGroup: "market", Status: 429}}
	mockRepo := &mockRequestLogSearcher{logs: logs}
	handler := SearchRequestLogsHandler(mockRepo)

	req := httptest.NewRequest(http.MethodGet, "/_proxy/requests?path=/capi/v2/market/ticker&group=market&status=429&createdFrom=2024-01-01T00:00:00Z&createdTo=2024-02-01T00:00:00Z&page=2&pageSize=5", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withCaller(req))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if mockRepo.path == nil || *mockRepo.path != "/capi/v2/market/ticker" {
		t.Fatalf("expected path filter, got %v", mockRepo.path)
	}

	if mockRepo.group == nil || *mockRepo.group != "market" {
		t.Fatalf("expected group market, got %v", mockRepo.group)
	}

	if mockRepo.status == nil || *mockRepo.status != 429 {
		t.Fatalf("expected status 429, got %v", mockRepo.status)
	}

	if mockRepo.createdAfter == nil || mockRepo.createdBefore == nil {
		t.Fatalf("expected createdAt filters to be set")
	}

	if mockRepo.limit != 5 || mockRepo.offset != 5 {
		t.Fatalf("expected limit 5 and offset 5, got limit=%d offset=%d", mockRepo.limit, mockRepo.offset)
	}

	var got []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(got) != 1 || got[0]["group"] != "market" {
		t.Fatalf("unexpected response: %s", rr.Body.String())
	}
}
