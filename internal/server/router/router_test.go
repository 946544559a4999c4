package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository/sqlite"
	"github.com/mamadbah2/dairysense/internal/server/handlers"
	"github.com/mamadbah2/dairysense/internal/service/lanelog"
	"github.com/mamadbah2/dairysense/internal/service/monitoring"
	"github.com/mamadbah2/dairysense/internal/service/rfid"
)

var fixedNow = time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*gin.Engine, *sqlite.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.OpenMemory(t.Name(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	clock := func() time.Time { return fixedNow }
	engine := New(Handlers{
		Monitoring: handlers.NewMonitoringHandler(monitoring.NewService(store, nil, monitoring.WithClock(clock)), nil),
		LaneLog:    handlers.NewLaneLogHandler(lanelog.NewService(store, nil, clock), nil),
		RFID:       handlers.NewRFIDHandler(rfid.NewPendingStore(time.Minute, nil, clock), nil),
	}, nil)
	return engine, store
}

func do(t *testing.T, engine *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndMetrics(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, engine, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dairysense_http_request_duration_seconds")
}

func TestRecordAndMonitorOneCow(t *testing.T) {
	engine, store := newTestEngine(t)
	require.NoError(t, store.UpsertCow(context.Background(), models.Cow{
		CowID: "COW001", CowType: models.CowTypeNormal, Status: models.CowStatusActive,
	}))

	rec := do(t, engine, http.MethodPost, "/api/daily-lane-log/feed", gin.H{"laneNo": 1, "cowId": "COW001", "feedKg": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, engine, http.MethodPost, "/api/daily-lane-log/milk-yield", gin.H{"cowId": "COW001", "session": "morning", "yieldL": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, engine, http.MethodPost, "/api/daily-lane-log/milk-yield", gin.H{"cowId": "COW001", "session": "evening", "yieldL": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, engine, http.MethodGet, "/api/monitoring/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dashboard models.Dashboard
	decode(t, rec, &dashboard)
	assert.Equal(t, "2024-01-10", dashboard.Date)
	assert.Equal(t, 1, dashboard.TotalCows)
	assert.InDelta(t, 5.0, dashboard.TotalMilk, 1e-9)
	assert.InDelta(t, 5.0, dashboard.TotalFeed, 1e-9)
	assert.InDelta(t, 1.0, dashboard.YieldFeedRatio, 1e-9)
	assert.Equal(t, 0, dashboard.LowYieldCount)

	rec = do(t, engine, http.MethodGet, "/api/monitoring/cows?date=2024-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cows []models.CowListItem
	decode(t, rec, &cows)
	require.Len(t, cows, 1)
	assert.Equal(t, models.StatusNormal, cows[0].Status)

	rec = do(t, engine, http.MethodGet, "/api/monitoring/cows/COW001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail models.CowDetail
	decode(t, rec, &detail)
	assert.InDelta(t, 5.0, detail.Today.Milk, 1e-9)

	rec = do(t, engine, http.MethodGet, "/api/monitoring/summary?date=2024-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.SummaryView
	decode(t, rec, &summary)
	assert.Equal(t, "COW001", models.StringValue(summary.BestCowID))

	rec = do(t, engine, http.MethodGet, "/api/monitoring/history?from=2024-01-01&to=2024-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.HistoryRow
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "1", history[0].Lane)

	rec = do(t, engine, http.MethodGet, "/api/daily-lane-log/entry?laneNo=1&cowId=COW001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entry struct {
		Data *models.LaneLogEntry `json:"data"`
	}
	decode(t, rec, &entry)
	require.NotNil(t, entry.Data)
	assert.InDelta(t, 5.0, models.Value(entry.Data.TotalYieldL), 1e-9)
}

func TestErrorMapping(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
	}{
		{"summary without date", http.MethodGet, "/api/monitoring/summary", nil, http.StatusBadRequest},
		{"history without to", http.MethodGet, "/api/monitoring/history?from=2024-01-01", nil, http.StatusBadRequest},
		{"history reversed", http.MethodGet, "/api/monitoring/history?from=2024-01-10&to=2024-01-01", nil, http.StatusBadRequest},
		{"malformed date", http.MethodGet, "/api/monitoring/dashboard?date=10-01-2024", nil, http.StatusBadRequest},
		{"unknown cow", http.MethodGet, "/api/monitoring/cows/NOPE", nil, http.StatusNotFound},
		{"feed without amount", http.MethodPost, "/api/daily-lane-log/feed", gin.H{"laneNo": 1, "cowId": "COW001"}, http.StatusBadRequest},
		{"negative feed", http.MethodPost, "/api/daily-lane-log/feed", gin.H{"laneNo": 1, "cowId": "COW001", "feedKg": -2}, http.StatusBadRequest},
		{"milk before feed", http.MethodPost, "/api/daily-lane-log/milk-yield", gin.H{"cowId": "COW009", "session": "morning", "yieldL": 3}, http.StatusNotFound},
		{"unknown session", http.MethodPost, "/api/daily-lane-log/milk-yield", gin.H{"cowId": "COW001", "session": "noon", "yieldL": 3}, http.StatusBadRequest},
		{"entry without lane", http.MethodGet, "/api/daily-lane-log/entry?cowId=COW001", nil, http.StatusBadRequest},
		{"scan without uid", http.MethodPost, "/api/rfid/pending", gin.H{"rfidUid": ""}, http.StatusBadRequest},
		{"unknown scan", http.MethodGet, "/api/rfid/pending/NOPE", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, engine, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPendingScanLifecycle(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodPost, "/api/rfid/pending", gin.H{"rfidUid": "E2000017", "ttlMinutes": 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	var scan rfid.Scan
	decode(t, rec, &scan)
	assert.Equal(t, "E2000017", scan.RFIDUID)
	assert.NotEmpty(t, scan.Token)
	assert.True(t, scan.ExpiresAt.Equal(fixedNow.Add(5*time.Minute)))

	rec = do(t, engine, http.MethodGet, "/api/rfid/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scans []rfid.Scan
	decode(t, rec, &scans)
	assert.Len(t, scans, 1)

	rec = do(t, engine, http.MethodGet, "/api/rfid/pending/E2000017", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, engine, http.MethodDelete, "/api/rfid/pending/E2000017", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, engine, http.MethodDelete, "/api/rfid/pending/E2000017", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
