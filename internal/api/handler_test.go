package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
	"github.com/hazardwatch/go-hazard-alerts/internal/notify"
	"github.com/hazardwatch/go-hazard-alerts/internal/repository"
)

// mockAlertRepo implements repository.AlertRepository for testing
type mockAlertRepo struct {
	mu      sync.Mutex
	alerts  []models.Alert
	sent    []string
	listErr error
}

func (m *mockAlertRepo) CreateAlert(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *mockAlertRepo) GetAlert(_ context.Context, id string) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			a := m.alerts[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockAlertRepo) ListAlerts(_ context.Context, filter repository.AlertFilter) ([]models.Alert, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []models.Alert
	for _, a := range m.alerts {
		if filter.ActiveOnly && (!a.IsActive || a.Expired(filter.Now)) {
			continue
		}
		if filter.Category != nil && a.Category != *filter.Category {
			continue
		}
		if filter.Severity != nil && a.Severity != *filter.Severity {
			continue
		}
		results = append(results, a)
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (m *mockAlertRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, id)
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].SentAt = &at
		}
	}
	return nil
}

func (m *mockAlertRepo) DeactivateAlert(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockAlertRepo) CountActiveBySeverity(_ context.Context, now time.Time) (map[models.Severity]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.Severity]int{}
	for _, a := range m.alerts {
		if a.IsActive && !a.Expired(now) {
			counts[a.Severity]++
		}
	}
	return counts, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (d *recordingDispatcher) Dispatch(_ context.Context, a *models.Alert) {
	d.mu.Lock()
	d.alerts = append(d.alerts, *a)
	d.mu.Unlock()
}

type testEnv struct {
	router      *gin.Engine
	repo        *mockAlertRepo
	registry    *notify.Registry
	dispatcher  *recordingDispatcher
	broadcaster *notify.Broadcaster
	clock       *clockwork.FakeClock
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		repo:        &mockAlertRepo{},
		registry:    notify.NewRegistry(),
		dispatcher:  &recordingDispatcher{},
		broadcaster: notify.NewBroadcaster(),
		clock:       clockwork.NewFakeClock(),
	}
	t.Cleanup(env.broadcaster.Close)

	env.router = gin.New()
	handler := NewHandler(env.repo, env.registry, env.dispatcher, env.broadcaster, env.clock)
	handler.RegisterRoutes(env.router)
	return env
}

func seedAlert(env *testEnv, severity models.Severity, active bool) models.Alert {
	a := models.Alert{
		ID:        "alert-" + string(severity) + "-" + map[bool]string{true: "on", false: "off"}[active],
		Category:  models.CategoryFlood,
		Severity:  severity,
		Latitude:  35.0,
		Longitude: 139.0,
		Title:     "Flood Warning",
		Message:   "test",
		IsActive:  active,
		CreatedAt: env.clock.Now(),
	}
	env.repo.alerts = append(env.repo.alerts, a)
	return a
}

func TestListAlerts(t *testing.T) {
	env := setupTestRouter(t)
	seedAlert(env, models.SeverityHigh, true)
	seedAlert(env, models.SeverityLow, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Alerts []alertResponse `json:"alerts"`
		Count  int             `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestListAlerts_ActiveFilterExcludesInactiveAndExpired(t *testing.T) {
	env := setupTestRouter(t)
	seedAlert(env, models.SeverityHigh, true)
	seedAlert(env, models.SeverityLow, false)

	seedAlert(env, models.SeverityMedium, true)
	past := env.clock.Now().Add(-time.Minute)
	env.repo.alerts[2].ExpiresAt = &past

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts?active=true", nil)
	env.router.ServeHTTP(w, req)

	var body struct {
		Alerts []alertResponse `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(body.Alerts))
	}
	if body.Alerts[0].Severity != "HIGH" {
		t.Errorf("severity = %s, want HIGH", body.Alerts[0].Severity)
	}
}

func TestListAlerts_SeverityFilter(t *testing.T) {
	env := setupTestRouter(t)
	seedAlert(env, models.SeverityHigh, true)
	seedAlert(env, models.SeverityCritical, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts?severity=critical", nil)
	env.router.ServeHTTP(w, req)

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestListAlertsGeoJSON(t *testing.T) {
	env := setupTestRouter(t)
	seedAlert(env, models.SeverityHigh, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts/geojson", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "geo+json") {
		t.Errorf("Content-Type = %s, want application/geo+json", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection: %+v", fc)
	}
	coords := fc.Features[0].Geometry.Coordinates
	if coords[0] != 139.0 || coords[1] != 35.0 {
		t.Errorf("coordinates = %v, want [lon lat]", coords)
	}
}

func TestGetAlert(t *testing.T) {
	env := setupTestRouter(t)
	a := seedAlert(env, models.SeverityHigh, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts/"+a.ID, nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/alerts/no-such-id", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateAlert_PersistsAndDispatches(t *testing.T) {
	env := setupTestRouter(t)

	body := `{"category":"weather","severity":"critical","latitude":10,"longitude":20,"title":"Extreme Wind Alert","message":"take shelter","expires_in":"6h"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp alertResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Category != "WEATHER" || resp.Severity != "CRITICAL" {
		t.Errorf("got %s/%s, want WEATHER/CRITICAL", resp.Category, resp.Severity)
	}
	if resp.ExpiresAt == nil {
		t.Error("expires_at should be set")
	}
	if resp.SentAt == nil {
		t.Error("sent_at should be set after dispatch")
	}

	if len(env.repo.alerts) != 1 {
		t.Fatalf("persisted %d alerts, want 1", len(env.repo.alerts))
	}
	if len(env.dispatcher.alerts) != 1 {
		t.Fatalf("dispatched %d alerts, want 1", len(env.dispatcher.alerts))
	}
}

func TestCreateAlert_Validation(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"category":"flood","severity":"high"}`},
		{"unknown category", `{"category":"plague","severity":"high","title":"x"}`},
		{"unknown severity", `{"category":"flood","severity":"apocalyptic","title":"x"}`},
		{"bad expires_in", `{"category":"flood","severity":"high","title":"x","expires_in":"soon"}`},
		{"latitude out of range", `{"category":"flood","severity":"high","title":"x","latitude":999,"longitude":139}`},
		{"longitude out of range", `{"category":"flood","severity":"high","title":"x","latitude":35,"longitude":-500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			env.router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	if len(env.dispatcher.alerts) != 0 {
		t.Errorf("invalid requests must not dispatch, got %d", len(env.dispatcher.alerts))
	}
}

func TestDeactivateAlert(t *testing.T) {
	env := setupTestRouter(t)
	a := seedAlert(env, models.SeverityHigh, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/alerts/"+a.ID+"/deactivate", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if env.repo.alerts[0].IsActive {
		t.Error("alert should be inactive")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/alerts/no-such-id/deactivate", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAlertSummary(t *testing.T) {
	env := setupTestRouter(t)
	seedAlert(env, models.SeverityHigh, true)
	seedAlert(env, models.SeverityCritical, true)
	seedAlert(env, models.SeverityLow, false) // inactive, not counted

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts/summary", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Total      int            `json:"total"`
		BySeverity map[string]int `json:"by_severity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	if body.BySeverity["HIGH"] != 1 || body.BySeverity["CRITICAL"] != 1 {
		t.Errorf("by_severity = %v", body.BySeverity)
	}
}

func TestRecipientEndpoints(t *testing.T) {
	env := setupTestRouter(t)

	body := `{"name":"ops","email":"ops@example.com","channels":["email","sms"],"phone":"+15550001111","latitude":35.68,"longitude":139.69}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recipients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if env.registry.Len() != 1 {
		t.Fatalf("registry has %d recipients, want 1", env.registry.Len())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/recipients", nil)
	env.router.ServeHTTP(w, req)

	var list struct {
		Recipients []recipientResponse `json:"recipients"`
		Count      int                 `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Count != 1 || list.Recipients[0].Name != "ops" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if got := list.Recipients[0].Channels; len(got) != 2 || got[0] != "EMAIL" {
		t.Errorf("channels = %v, want [EMAIL SMS]", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/recipients/ops", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d, want 200", w.Code)
	}
	if env.registry.Len() != 0 {
		t.Error("registry should be empty")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/recipients/ops", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", w.Code)
	}
}

func TestAddRecipient_Validation(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"x@example.com"}`},
		{"half a location", `{"name":"ops","email":"x@example.com","latitude":35.0}`},
		{"bad channel", `{"name":"ops","email":"x@example.com","channels":["carrier-pigeon"]}`},
		{"location out of range", `{"name":"ops","email":"x@example.com","latitude":999,"longitude":-500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/recipients", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			env.router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestStreamAlerts_DeliversBroadcasts(t *testing.T) {
	env := setupTestRouter(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/alerts/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	// Wait for the subscription to land before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for env.broadcaster.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	env.broadcaster.Broadcast(&models.Alert{
		ID: "stream-1", Category: models.CategoryFlood, Severity: models.SeverityHigh,
		Title: "Flood Warning", IsActive: true,
	})

	scanner := bufio.NewScanner(resp.Body)
	var sawEvent, sawData bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") && strings.Contains(line, "alert") {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data:") && strings.Contains(line, "stream-1") {
			sawData = true
			break
		}
	}
	if !sawEvent || !sawData {
		t.Errorf("stream output incomplete: event=%v data=%v", sawEvent, sawData)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
