package metrics

import (
	"testing"
	"time"
)

func TestObserveBeforeInitIsNoOp(t *testing.T) {
	// Collectors are nil until Init runs; observations must not panic.
	ObserveImport("succeeded", time.Second)
	ObserveStageFailure("fetch", "not_found")
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	ObserveImport("succeeded", 2*time.Second)
	ObserveImport("failed", 0)
	ObserveStageFailure("write", "auth_failed")

	if Handler() == nil {
		t.Fatal("expected a metrics handler")
	}
}
