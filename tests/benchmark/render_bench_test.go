package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shatlykos/cafe-management-system/internal/barcode"
	"github.com/shatlykos/cafe-management-system/internal/sse"
)

func BenchmarkEAN13_Generate(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := barcode.Generate(int64(i%1000000 + 1)); err != nil {
			b.Fatalf("generate failed: %v", err)
		}
	}
}

func BenchmarkEAN13_Encode(b *testing.B) {
	code, err := barcode.Generate(123456)
	if err != nil {
		b.Fatalf("generate failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := barcode.Encode(code); err != nil {
			b.Fatalf("encode failed: %v", err)
		}
	}
}

func BenchmarkRenderPNG_Default(b *testing.B) {
	code, err := barcode.Generate(123456)
	if err != nil {
		b.Fatalf("generate failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := barcode.RenderPNG(code, barcode.PNGOptions{}); err != nil {
			b.Fatalf("render png failed: %v", err)
		}
	}
}

func BenchmarkRenderSVG_Default(b *testing.B) {
	code, err := barcode.Generate(123456)
	if err != nil {
		b.Fatalf("generate failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := barcode.RenderSVG(code, barcode.SVGOptions{}); err != nil {
			b.Fatalf("render svg failed: %v", err)
		}
	}
}

func BenchmarkSSE_PublishToAll_1000clients(b *testing.B) {
	hub := sse.NewHub(nil)
	defer hub.Close()

	for i := 0; i < 1000; i++ {
		client := sse.NewClient("bench-staff-"+strconv.Itoa(i), "barista")
		hub.Register(client)
	}

	event := sse.NewEvent(sse.EventVisitRecorded, map[string]interface{}{
		"client_id": 42,
		"ordinal":   7,
		"free":      true,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.Broadcast(event)
	}
}

func BenchmarkAPI_Scan(b *testing.B) {
	baseURL := strings.TrimRight(os.Getenv("CAFEHUB_BENCH_BASE_URL"), "/")
	token := os.Getenv("CAFEHUB_BENCH_TOKEN")
	code := os.Getenv("CAFEHUB_BENCH_BARCODE")
	if baseURL == "" || token == "" || code == "" {
		b.Skip("set CAFEHUB_BENCH_BASE_URL/CAFEHUB_BENCH_TOKEN/CAFEHUB_BENCH_BARCODE")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	payload := map[string]interface{}{
		"code":     code,
		"category": "breakfast",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := postJSON(client, baseURL+"/api/v1/scan", payload, map[string]string{
			"Authorization": "Bearer " + token,
		}); err != nil {
			b.Fatalf("scan failed: %v", err)
		}
	}
}

func BenchmarkAPI_RenderBarcodePNG(b *testing.B) {
	baseURL := strings.TrimRight(os.Getenv("CAFEHUB_BENCH_BASE_URL"), "/")
	token := os.Getenv("CAFEHUB_BENCH_TOKEN")
	clientID := os.Getenv("CAFEHUB_BENCH_CLIENT_ID")
	if baseURL == "" || token == "" || clientID == "" {
		b.Skip("set CAFEHUB_BENCH_BASE_URL/CAFEHUB_BENCH_TOKEN/CAFEHUB_BENCH_CLIENT_ID")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := baseURL + "/api/v1/clients/" + clientID + "/barcode.png"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// #nosec G107,G704 -- benchmark target URL is intentionally configurable.
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			b.Fatalf("new request failed: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		// #nosec G107,G704 -- benchmark target URL is intentionally configurable.
		resp, err := client.Do(req)
		if err != nil {
			b.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b.Fatalf("unexpected status: %d", resp.StatusCode)
		}
	}
}

func postJSON(client *http.Client, url string, payload interface{}, headers map[string]string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	// #nosec G107,G704 -- benchmark target URL is intentionally configurable.
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
