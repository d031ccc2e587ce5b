//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shatlykos/cafe-management-system/internal/station"
	cryptoutil "github.com/shatlykos/cafe-management-system/pkg/crypto"
)

func dialStation(t *testing.T, server *httptest.Server, stationID string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/stations/ws"
	parsed, err := url.Parse(wsURL)
	if err != nil {
		t.Fatalf("parse ws url failed: %v", err)
	}
	query := parsed.Query()
	query.Set("station_id", stationID)
	query.Set("token", cryptoutil.GenerateStationHMACToken(stationID, stationSecret))
	parsed.RawQuery = query.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(parsed.String(), nil)
	if err != nil {
		t.Fatalf("dial station ws failed: %v", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn
}

func sendStationMessage(t *testing.T, conn *websocket.Conn, msg station.Message) {
	t.Helper()

	_ = conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write station message failed: %v", err)
	}
}

func readStationMessage(t *testing.T, conn *websocket.Conn, want station.MsgType) station.Message {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		var msg station.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read station message failed: %v", err)
		}
		if msg.Type == want {
			return msg
		}
		// Heartbeat pings may interleave with replies.
		if msg.Type == station.Ping {
			sendStationMessage(t, conn, station.Message{Type: station.Pong, ID: msg.ID})
			continue
		}
	}

	t.Fatalf("did not receive %s message in time", want)
	return station.Message{}
}

func TestStationWS_RejectsBadToken(t *testing.T) {
	server := httptest.NewServer(getEnv(t).router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/api/v1/stations/ws?station_id=counter-1&token=forged"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail with forged token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 on upgrade, got %+v", resp)
	}
	_ = resp.Body.Close()
}

func TestStationWS_ScanRoundTrip(t *testing.T) {
	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)
	client := createClient(t, adminToken, uniqueName("Стойка"))

	server := httptest.NewServer(getEnv(t).router)
	defer server.Close()

	conn := dialStation(t, server, uniqueName("station"))
	defer conn.Close()

	helloPayload, _ := json.Marshal(station.StationHelloPayload{
		StationID: "ignored",
		Label:     "Касса у входа",
		Version:   "1.0.0",
	})
	sendStationMessage(t, conn, station.Message{
		Type:    station.StationHello,
		ID:      "hello-1",
		Payload: helloPayload,
	})

	scanPayload, _ := json.Marshal(station.ScanPayload{
		Code:     client.Barcode,
		Category: "breakfast",
	})
	sendStationMessage(t, conn, station.Message{
		Type:    station.Scan,
		ID:      "scan-1",
		Payload: scanPayload,
	})

	reply := readStationMessage(t, conn, station.ScanResult)
	var result station.ScanResultPayload
	if err := json.Unmarshal(reply.Payload, &result); err != nil {
		t.Fatalf("decode scan result failed: %v", err)
	}

	if result.Status != station.ScanStatusOK {
		t.Fatalf("expected status ok, got %q (%s)", result.Status, result.Message)
	}
	if result.ClientID != client.ID {
		t.Fatalf("expected client id %d, got %d", client.ID, result.ClientID)
	}
	if result.Ordinal != 1 {
		t.Fatalf("expected first visit, got ordinal %d", result.Ordinal)
	}
	if result.UntilFree != 6 {
		t.Fatalf("expected 6 until free, got %d", result.UntilFree)
	}
}

func TestStationWS_UnknownCode(t *testing.T) {
	server := httptest.NewServer(getEnv(t).router)
	defer server.Close()

	conn := dialStation(t, server, uniqueName("station"))
	defer conn.Close()

	scanPayload, _ := json.Marshal(station.ScanPayload{
		Code:     "2909999999990",
		Category: "coffee",
	})
	sendStationMessage(t, conn, station.Message{
		Type:    station.Scan,
		ID:      "scan-unknown",
		Payload: scanPayload,
	})

	reply := readStationMessage(t, conn, station.ScanResult)
	var result station.ScanResultPayload
	if err := json.Unmarshal(reply.Payload, &result); err != nil {
		t.Fatalf("decode scan result failed: %v", err)
	}
	if result.Status != station.ScanStatusUnknownCode {
		t.Fatalf("expected unknown_code, got %q", result.Status)
	}
}

func TestStationList_ShowsConnectedStation(t *testing.T) {
	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)

	server := httptest.NewServer(getEnv(t).router)
	defer server.Close()

	stationID := uniqueName("station")
	conn := dialStation(t, server, stationID)
	defer conn.Close()

	// Give the register hook a moment to run.
	time.Sleep(100 * time.Millisecond)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodGet,
		"/api/v1/stations",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("list stations failed, status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), stationID) {
		t.Fatalf("expected station %s in list, got %s", stationID, resp.Body.String())
	}
}
