package lifecycle

import (
	"testing"

	"homefix_orders/internal/domain/entities"
)

func TestRegistry_Allows(t *testing.T) {
	r := NewRegistry()
	legal := []Edge{
		{entities.OrderStatusPending, entities.OrderStatusAccepted},
		{entities.OrderStatusPending, entities.OrderStatusDeclined},
		{entities.OrderStatusPending, entities.OrderStatusCanceled},
		{entities.OrderStatusAccepted, entities.OrderStatusComing},
		{entities.OrderStatusAccepted, entities.OrderStatusCanceled},
		{entities.OrderStatusComing, entities.OrderStatusInProgress},
		{entities.OrderStatusComing, entities.OrderStatusCanceled},
		{entities.OrderStatusInProgress, entities.OrderStatusFinished},
		{entities.OrderStatusInProgress, entities.OrderStatusInvoiced},
		{entities.OrderStatusInProgress, entities.OrderStatusCanceled},
		{entities.OrderStatusFinished, entities.OrderStatusInvoiced},
		{entities.OrderStatusInvoiced, entities.OrderStatusPaid},
	}
	for _, e := range legal {
		if !r.Allows(e.From, e.To) {
			t.Fatalf("expected %s -> %s to be legal", e.From, e.To)
		}
	}
	if got := len(r.Edges()); got != len(legal) {
		t.Fatalf("expected %d edges, got %d", len(legal), got)
	}

	illegal := []Edge{
		{entities.OrderStatusAccepted, entities.OrderStatusPending},
		{entities.OrderStatusFinished, entities.OrderStatusPending},
		{entities.OrderStatusInvoiced, entities.OrderStatusCanceled},
		{entities.OrderStatusPending, entities.OrderStatusInvoiced},
		{entities.OrderStatusPending, "BOGUS"},
	}
	for _, e := range illegal {
		if r.Allows(e.From, e.To) {
			t.Fatalf("expected %s -> %s to be illegal", e.From, e.To)
		}
	}
}

func TestRegistry_TerminalStatesHaveNoTargets(t *testing.T) {
	r := NewRegistry()
	for _, s := range entities.AllOrderStatuses {
		if !r.IsTerminal(s) {
			continue
		}
		if len(r.Targets(s)) != 0 {
			t.Fatalf("terminal %s has targets", s)
		}
		for _, to := range entities.AllOrderStatuses {
			if r.Allows(s, to) {
				t.Fatalf("terminal %s allows %s", s, to)
			}
		}
	}
	if targets := r.Targets(entities.OrderStatusInvoiced); len(targets) != 1 || targets[0] != entities.OrderStatusPaid {
		t.Fatalf("INVOICED must only advance to PAID, got %v", targets)
	}
}

func TestParseOrderStatus(t *testing.T) {
	cases := map[string]entities.OrderStatus{
		"pending":     entities.OrderStatusPending,
		" in-progress": entities.OrderStatusInProgress,
		"CANCELLED":   entities.OrderStatusCanceled,
		"canceled":    entities.OrderStatusCanceled,
	}
	for raw, want := range cases {
		got, ok := entities.ParseOrderStatus(raw)
		if !ok || got != want {
			t.Fatalf("parse %q: got %q ok=%v", raw, got, ok)
		}
	}
	if _, ok := entities.ParseOrderStatus("done"); ok {
		t.Fatalf("expected unknown status to fail")
	}
}
