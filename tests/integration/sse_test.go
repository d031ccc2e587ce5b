//go:build integration

package integration

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/sse"
)

func TestSSEConnect_Unauthenticated(t *testing.T) {
	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/events",
		nil,
		nil,
		nil,
	)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestSSEReceiveEvent_OnScan(t *testing.T) {
	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)
	client := createClient(t, adminToken, uniqueName("Подписчик"))

	session := loginSession(t, getEnv(t).baristaUsername, baristaPassword)
	if session.AccessCookie == nil {
		t.Fatal("expected access cookie")
	}

	server := httptest.NewServer(getEnv(t).router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events", nil)
	if err != nil {
		t.Fatalf("create sse request failed: %v", err)
	}
	req.AddCookie(session.AccessCookie)

	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("open sse stream failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	go func() {
		time.Sleep(200 * time.Millisecond)
		_, _ = getEnv(t).scanSvc.Scan(context.Background(), client.Barcode, model.CategoryBreakfast)
	}()

	scanner := bufio.NewScanner(resp.Body)
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "event: "+sse.EventVisitRecorded {
			found = true
			break
		}
	}

	if err := scanner.Err(); err != nil && !strings.Contains(err.Error(), "context canceled") {
		t.Fatalf("scan sse stream failed: %v", err)
	}

	if !found {
		t.Fatal("expected visit recorded sse event")
	}
}
