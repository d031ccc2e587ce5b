//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shatlykos/cafe-management-system/internal/api/response"
	"github.com/shatlykos/cafe-management-system/internal/loyalty"
	"github.com/shatlykos/cafe-management-system/internal/model"
)

type scanResultPayload struct {
	Client model.Client       `json:"client"`
	Visit  model.Visit        `json:"visit"`
	Stats  loyalty.VisitStats `json:"stats"`
}

func scanOnce(t *testing.T, token string, code string, category string) scanResultPayload {
	t.Helper()

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/scan",
		map[string]interface{}{
			"code":     code,
			"category": category,
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("scan failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Code != 0 {
		t.Fatalf("scan failed, code=%d message=%s", envelope.Code, envelope.Message)
	}

	var payload scanResultPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode scan payload: %v", err)
	}
	return payload
}

func TestScan_SeventhVisitIsFree(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)
	client := createClient(t, token, uniqueName("Завтракающая"))

	for i := 1; i <= 7; i++ {
		result := scanOnce(t, token, client.Barcode, "breakfast")

		if result.Visit.Ordinal != int64(i) {
			t.Fatalf("visit %d: expected ordinal %d, got %d", i, i, result.Visit.Ordinal)
		}
		wantFree := i == 7
		if result.Visit.Free != wantFree {
			t.Fatalf("visit %d: expected free=%v, got %v", i, wantFree, result.Visit.Free)
		}
		if result.Stats.Total != int64(i) {
			t.Fatalf("visit %d: expected total %d, got %d", i, i, result.Stats.Total)
		}
		wantUntil := 7 - i%7
		if i%7 == 0 {
			wantUntil = 7
		}
		if result.Stats.UntilFree != wantUntil {
			t.Fatalf("visit %d: expected until_free %d, got %d", i, wantUntil, result.Stats.UntilFree)
		}
	}

	// The cycle is continuous, so the 14th visit is free again.
	for i := 8; i <= 14; i++ {
		result := scanOnce(t, token, client.Barcode, "breakfast")
		if result.Visit.Free != (i%7 == 0) {
			t.Fatalf("visit %d: expected free=%v", i, i%7 == 0)
		}
	}
}

func TestScan_CategoriesCountIndependently(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)
	client := createClient(t, token, uniqueName("Кофеман"))

	for i := 0; i < 3; i++ {
		scanOnce(t, token, client.Barcode, "breakfast")
	}
	coffee := scanOnce(t, token, client.Barcode, "coffee")

	if coffee.Visit.Ordinal != 1 {
		t.Fatalf("expected first coffee ordinal 1, got %d", coffee.Visit.Ordinal)
	}
	if coffee.Stats.UntilFree != 6 {
		t.Fatalf("expected 6 coffees until free, got %d", coffee.Stats.UntilFree)
	}

	breakfast := scanOnce(t, token, client.Barcode, "breakfast")
	if breakfast.Visit.Ordinal != 4 {
		t.Fatalf("expected breakfast ordinal 4, got %d", breakfast.Visit.Ordinal)
	}
}

func TestScan_DefaultsToBreakfast(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)
	client := createClient(t, token, uniqueName("Поумолчанию"))

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/scan",
		map[string]interface{}{"code": client.Barcode},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("scan failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var payload scanResultPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode scan payload: %v", err)
	}
	if payload.Visit.Category != model.CategoryBreakfast {
		t.Fatalf("expected breakfast category, got %q", payload.Visit.Category)
	}
}

func TestScan_UnknownCode(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/scan",
		map[string]interface{}{
			"code":     "2909999999994",
			"category": "breakfast",
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d body=%s", resp.Code, resp.Body.String())
	}
	if responseCode(resp) != response.ErrClientNotFound {
		t.Fatalf("expected code %d, got %d", response.ErrClientNotFound, responseCode(resp))
	}
}

func TestScan_UnknownCategory(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)
	client := createClient(t, token, uniqueName("Категория"))

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/scan",
		map[string]interface{}{
			"code":     client.Barcode,
			"category": "dinner",
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if responseCode(resp) != response.ErrInvalidCategory {
		t.Fatalf("expected code %d, got %d", response.ErrInvalidCategory, responseCode(resp))
	}
}

func TestRegisterVisit_BackdatedEntry(t *testing.T) {
	token := loginAs(t, getEnv(t).adminUsername, adminPassword)
	client := createClient(t, token, uniqueName("Задним числом"))

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		fmt.Sprintf("/api/v1/clients/%d/visits", client.ID),
		map[string]interface{}{
			"category":   "breakfast",
			"visited_on": "2026-08-20",
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("register visit failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var payload scanResultPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode visit payload: %v", err)
	}
	if got := payload.Visit.VisitedOn.Format("2006-01-02"); got != "2026-08-20" {
		t.Fatalf("expected visited_on 2026-08-20, got %s", got)
	}
}

func TestVisitHistory_ReturnsOrderedVisits(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)
	client := createClient(t, token, uniqueName("История"))

	for i := 0; i < 3; i++ {
		scanOnce(t, token, client.Barcode, "coffee")
	}

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		fmt.Sprintf("/api/v1/clients/%d/visits?category=coffee", client.ID),
		nil,
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("history failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var visits []model.Visit
	if err := json.Unmarshal(envelope.Data, &visits); err != nil {
		t.Fatalf("decode visits payload: %v", err)
	}
	if len(visits) != 3 {
		t.Fatalf("expected 3 visits, got %d", len(visits))
	}
	for i, visit := range visits {
		if visit.Ordinal != int64(i+1) {
			t.Fatalf("expected ordinal %d at position %d, got %d", i+1, i, visit.Ordinal)
		}
	}
}

func TestStats_FreshClient(t *testing.T) {
	token := loginAs(t, getEnv(t).baristaUsername, baristaPassword)
	client := createClient(t, token, uniqueName("Новичок"))

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		fmt.Sprintf("/api/v1/clients/%d/stats", client.ID),
		nil,
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("stats failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var stats struct {
		Breakfast loyalty.VisitStats `json:"breakfast"`
		Coffee    loyalty.VisitStats `json:"coffee"`
	}
	if err := json.Unmarshal(envelope.Data, &stats); err != nil {
		t.Fatalf("decode stats payload: %v", err)
	}
	if stats.Breakfast.Total != 0 || stats.Breakfast.UntilFree != 7 || stats.Breakfast.NextFree {
		t.Fatalf("unexpected fresh breakfast stats: %+v", stats.Breakfast)
	}
	if stats.Coffee.Total != 0 || stats.Coffee.UntilFree != 7 {
		t.Fatalf("unexpected fresh coffee stats: %+v", stats.Coffee)
	}
}

func TestDashboardSummary_CountsToday(t *testing.T) {
	token := loginAs(t, getEnv(t).adminUsername, adminPassword)
	client := createClient(t, token, uniqueName("Сводка"))

	scanOnce(t, token, client.Barcode, "breakfast")
	scanOnce(t, token, client.Barcode, "coffee")

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/dashboard/summary",
		nil,
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("summary failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var summary struct {
		ClientsTotal   int64 `json:"clients_total"`
		BreakfastToday int64 `json:"breakfast_today"`
		CoffeeToday    int64 `json:"coffee_today"`
	}
	if err := json.Unmarshal(envelope.Data, &summary); err != nil {
		t.Fatalf("decode summary payload: %v", err)
	}
	if summary.ClientsTotal == 0 {
		t.Fatal("expected at least one client")
	}
	if summary.BreakfastToday == 0 {
		t.Fatal("expected breakfast scans today")
	}
	if summary.CoffeeToday == 0 {
		t.Fatal("expected coffee scans today")
	}
}
