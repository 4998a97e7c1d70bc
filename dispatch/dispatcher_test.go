package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"market-alerts-go/metrics"
	"market-alerts-go/trigger"
)

type staticResolver struct{}

func (staticResolver) ItemName(context.Context, int32) (string, error)  { return "Iron Ore", nil }
func (staticResolver) WorldName(context.Context, int32) (string, error) { return "Coeurl", nil }

func testTrigger() *trigger.Trigger {
	return &trigger.Trigger{
		Filters:    []trigger.Filter{trigger.FilterHQ},
		Mapper:     trigger.MapperUnitPrice,
		Reducer:    trigger.ReducerMin,
		Comparison: trigger.Comparison{Kind: trigger.ComparisonLessThan, Target: 150},
	}
}

func TestDispatchPayloadShape(t *testing.T) {
	var received WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer srv.Close()

	d := New(staticResolver{}, zap.NewNop(), metrics.NewNop())
	alert := trigger.UserAlert{Name: "cheap ore", DiscordWebhook: srv.URL}
	if err := d.Dispatch(context.Background(), 5057, 74, alert, testTrigger(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(received.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(received.Embeds))
	}
	e := received.Embeds[0]
	if e.Title != "Alert triggered for Iron Ore on Coeurl" {
		t.Fatalf("unexpected title: %q", e.Title)
	}
	if e.URL != "https://universalis.app/market/5057" {
		t.Fatalf("unexpected url: %q", e.URL)
	}
	if e.Color != 0xBD983A {
		t.Fatalf("unexpected color: %#x", e.Color)
	}
	if !strings.Contains(e.Description, "Value: 100") {
		t.Fatalf("description missing match value: %q", e.Description)
	}
	if !strings.Contains(e.Description, "Item is HQ") {
		t.Fatalf("description missing trigger text: %q", e.Description)
	}
	if e.Footer.Text != "universalis.app" || e.Author.Name != "Universalis Alert!" {
		t.Fatalf("unexpected footer/author: %+v", e)
	}
}

func TestDispatchWithoutWebhookIsNoop(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	d := New(staticResolver{}, zap.NewNop(), metrics.NewNop())
	alert := trigger.UserAlert{Name: "dry run"}
	if err := d.Dispatch(context.Background(), 5057, 74, alert, testTrigger(), 100); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatal("no request should be sent without a webhook")
	}
}

func TestDispatchRejectedWebhook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := New(staticResolver{}, zap.NewNop(), metrics.NewNop())
	alert := trigger.UserAlert{Name: "rejected", DiscordWebhook: srv.URL}
	err := d.Dispatch(context.Background(), 5057, 74, alert, testTrigger(), 100)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatchUnreachableWebhook(t *testing.T) {
	d := New(staticResolver{}, zap.NewNop(), metrics.NewNop())
	alert := trigger.UserAlert{Name: "offline", DiscordWebhook: "http://127.0.0.1:1/hook"}
	if err := d.Dispatch(context.Background(), 5057, 74, alert, testTrigger(), 100); err == nil {
		t.Fatal("expected delivery error")
	}
}
