package headless

import (
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/fetcher"
)

func TestNewChromedpValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChromedp(Config{SettleDelay: -time.Second}); err == nil {
		t.Fatal("expected error for negative settle delay")
	}
	f, err := NewChromedp(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	if f.Name() != Name {
		t.Fatalf("unexpected name %q", f.Name())
	}
}

func TestFetcherDefaults(t *testing.T) {
	t.Parallel()

	f := &Fetcher{}
	if got := f.navTimeout(); got != 30*time.Second {
		t.Fatalf("expected default nav timeout, got %v", got)
	}
	if got := f.settleDelay(); got != 2*time.Second {
		t.Fatalf("expected default settle delay, got %v", got)
	}
	f.cfg = Config{NavigationTimeout: time.Second, SettleDelay: 10 * time.Millisecond}
	if f.navTimeout() != time.Second || f.settleDelay() != 10*time.Millisecond {
		t.Fatal("expected overrides to be used")
	}
}

func TestActionsIncludePointerAndSettle(t *testing.T) {
	t.Parallel()

	f := &Fetcher{}
	var html, finalURL string
	actions := f.actions(fetcher.Request{URL: "https://example.com"}, &html, &finalURL)
	if len(actions) != 7 {
		t.Fatalf("expected 7 actions, got %d", len(actions))
	}
}

func TestCloneHeaderAndNetworkHeaders(t *testing.T) {
	t.Parallel()

	src := http.Header{"X-Test": {"a", "b"}, "Dnt": {"1"}}
	cloned := cloneHeader(src)
	cloned.Add("X-Test", "c")
	if len(src["X-Test"]) != 2 {
		t.Fatalf("source header mutated: %+v", src)
	}

	netHeaders := toNetworkHeaders(src)
	switch v := netHeaders["X-Test"].(type) {
	case []string:
		if len(v) != 2 {
			t.Fatalf("expected two entries, got %v", v)
		}
	default:
		t.Fatalf("expected []string, got %T", v)
	}
	if netHeaders["Dnt"] != "1" {
		t.Fatalf("expected single value, got %v", netHeaders["Dnt"])
	}
}

func TestResponseMetaCaptureAndFallbacks(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	meta.captureEvent(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status: 404,
			URL:    "https://example.com/rendered",
		},
	})
	status, url := meta.snapshotWithFallbacks("https://req", "")
	if status != 404 || url != "https://example.com/rendered" {
		t.Fatalf("unexpected snapshot values: status=%d url=%s", status, url)
	}

	meta = newResponseMeta()
	meta.capture(&network.EventResponseReceived{Type: network.ResourceTypeScript, Response: &network.Response{Status: 500}})
	status, url = meta.snapshotWithFallbacks("https://req", "https://final")
	if status != http.StatusOK || url != "https://final" {
		t.Fatalf("expected fallback values, got status=%d url=%s", status, url)
	}
}
