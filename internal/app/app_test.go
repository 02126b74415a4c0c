package app

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/atomicstack/vault-browser/internal/metrics"
)

func TestServeMetricsDisabled(t *testing.T) {
	addr, stop, err := serveMetrics("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "" {
		t.Fatalf("expected no bound address, got %q", addr)
	}
	if err := stop(); err != nil {
		t.Fatalf("expected no-op stop, got %v", err)
	}
}

func TestServeMetricsExposesRegistry(t *testing.T) {
	addr, stop, err := serveMetrics("127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = stop() })
	metrics.RecordPublish("DirectoryChangeRequested", 0)

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "vault_bus_messages_total") {
		t.Fatalf("expected bus metrics in scrape output")
	}
}

func TestServeMetricsRejectsBadAddress(t *testing.T) {
	if _, _, err := serveMetrics("not-an-address"); err == nil {
		t.Fatalf("expected listen error")
	}
}
