package audit

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := New(zap.New(core))

	log.Event("inventory.adjust", map[string]any{
		"sku":      "WIDGET-1",
		"actor_id": int64(7),
		"delta":    -3,
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 event, got %d", len(entries))
	}

	e := entries[0]
	if e.Message != "inventory.adjust" {
		t.Errorf("expected event name 'inventory.adjust', got %q", e.Message)
	}

	fields := e.ContextMap()
	if fields["sku"] != "WIDGET-1" {
		t.Errorf("expected sku field, got %v", fields["sku"])
	}
	if fields["event_id"] == "" {
		t.Error("expected generated event_id")
	}
}

func TestNilLogNeverPanics(t *testing.T) {
	var log *Log
	log.Event("noop", nil)
	log.Sync()

	Nop().Event("noop", map[string]any{"k": "v"})
}
