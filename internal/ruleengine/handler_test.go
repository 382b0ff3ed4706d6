package ruleengine

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/internal/scheduler"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

func handlerFixture(t *testing.T, rules []Rule) (*gin.Engine, *fakeSchedulerAPI, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, api, registry := serviceFixture(t, rules)
	router := gin.New()
	NewHandler(svc, logger.NopLogger()).RegisterRoutes(router)
	return router, api, registry
}

func TestTimerCallbackEndpoint(t *testing.T) {
	var ran bool
	rules := []Rule{
		{ID: "r1", AppID: "app1", IsEnabled: true, IsTimer: true, TimerValue: 60, Actions: []Action{{Name: "mark"}}},
	}

	router, api, registry := handlerFixture(t, rules)
	registry.RegisterPlugins(Plugin{
		Actions: map[string]ActionFunc{
			"mark": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				ran = true
				return nil, nil
			},
		},
	})

	body, err := json.Marshal(scheduler.CallbackPayload{
		Data: scheduler.JobPayload{
			JobID:           "app1_conv1_r1",
			RuleID:          "r1",
			OriginalPayload: *messageEvent(),
		},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/timer-callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ran)
	assert.Equal(t, []string{"app1_conv1_r1"}, api.deleted)
}

func TestTimerCallbackEndpointRejectsBadJSON(t *testing.T) {
	router, _, _ := handlerFixture(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/timer-callback", bytes.NewReader([]byte("{not json")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestEventEndpoint(t *testing.T) {
	router, _, _ := handlerFixture(t, nil)

	body, err := json.Marshal(messageEvent())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestIngestEventEndpointInvalidPayload(t *testing.T) {
	router, _, _ := handlerFixture(t, nil)

	// Valid JSON, but neither conversation nor message.
	body, err := json.Marshal(models.ProductEventPayload{Event: models.EventMessageCreate})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuleEndpoints(t *testing.T) {
	router, _, _ := handlerFixture(t, []Rule{{ID: "r1", AppID: "app1", Name: "greet"}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/apps/app1/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var listed []Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "greet", listed[0].Name)

	body, err := json.Marshal(Rule{Name: "auto-resolve"})
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/apps/app1/rules", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var created Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "app1", created.AppID)
}
