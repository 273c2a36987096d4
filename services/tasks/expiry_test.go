package tasks

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewOfferExpireTask(t *testing.T) {
	fireAt := time.Now().Add(5 * time.Minute)
	task, opts, err := NewOfferExpireTask("offer-123", fireAt)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TypeOfferExpire {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %d", len(opts))
	}

	var p OfferExpirePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.OfferID != "offer-123" {
		t.Fatalf("unexpected offer id %s", p.OfferID)
	}
}

func TestOfferTaskIDIsStable(t *testing.T) {
	// Same offer, same task id, so the queue dedupes duplicate schedules.
	if offerTaskID("o1") != offerTaskID("o1") {
		t.Fatal("task id not stable")
	}
	if offerTaskID("o1") == offerTaskID("o2") {
		t.Fatal("task ids must differ per offer")
	}
}
