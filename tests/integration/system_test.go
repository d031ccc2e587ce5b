//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
)

func TestSystemLogs_AdminOnly(t *testing.T) {
	baristaToken := loginAs(t, getEnv(t).baristaUsername, baristaPassword)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/system/logs",
		nil,
		authHeader(baristaToken),
		nil,
	)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for barista, got %d body=%s", resp.Code, resp.Body.String())
	}

	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)
	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/system/logs?page=1&page_size=10",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for admin, got %d body=%s", resp.Code, resp.Body.String())
	}
	if responseCode(resp) != response.CodeSuccess {
		t.Fatalf("expected success code, got %d", responseCode(resp))
	}
}

func TestSystemStatus_ReportsHostStats(t *testing.T) {
	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/system/status",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("status failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var status struct {
		CPUPercent float64 `json:"cpu_percent"`
		MemPercent float64 `json:"mem_percent"`
		MemTotal   uint64  `json:"mem_total"`
		Goroutines int     `json:"goroutines"`
		GoVersion  string  `json:"go_version"`
	}
	if err := json.Unmarshal(envelope.Data, &status); err != nil {
		t.Fatalf("decode status payload: %v", err)
	}

	if status.MemTotal == 0 {
		t.Fatal("expected non-zero total memory")
	}
	if status.Goroutines <= 0 {
		t.Fatalf("expected positive goroutine count, got %d", status.Goroutines)
	}
	if status.GoVersion == "" {
		t.Fatal("expected go version in status payload")
	}
}

func TestMaintenanceMode_BlocksNonAdmins(t *testing.T) {
	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)
	baristaToken := loginAs(t, getEnv(t).baristaUsername, baristaPassword)

	// The flag is process-wide, make sure it never leaks into other tests.
	defer middleware.SetMaintenanceMode(false)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPut,
		"/api/v1/system/maintenance",
		map[string]interface{}{"enabled": true},
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("enable maintenance failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/clients",
		nil,
		authHeader(baristaToken),
		nil,
	)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 for barista, got %d body=%s", resp.Code, resp.Body.String())
	}
	if responseCode(resp) != response.ErrSystemMaintenance {
		t.Fatalf("expected code %d, got %d", response.ErrSystemMaintenance, responseCode(resp))
	}

	// Admin keeps full access while the flag is set.
	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/clients",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected admin bypass, status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPut,
		"/api/v1/system/maintenance",
		map[string]interface{}{"enabled": false},
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("disable maintenance failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/clients",
		nil,
		authHeader(baristaToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected barista access restored, status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestInternalMetrics_TokenGated(t *testing.T) {
	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/internal/metrics",
		nil,
		nil,
		nil,
	)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", resp.Code)
	}
	envelope := decodeEnvelope(t, resp)
	if envelope.Code != response.ErrUnauthorized {
		t.Fatalf("expected app code %d, got %d", response.ErrUnauthorized, envelope.Code)
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/internal/metrics",
		nil,
		map[string]string{"X-Internal-Token": internalToken},
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 with token, got %d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "cafehub_sse_clients") {
		t.Fatal("expected exposition to list cafehub gauges")
	}
}
