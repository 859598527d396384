package aiclient

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	cb := NewCircuitBreaker(2, 100*time.Millisecond)

	if cb.State() != StateClosed {
		t.Fatalf("expected StateClosed initially, got %v", cb.State())
	}

	if err := cb.Execute(func() error { return errors.New("fail") }); err == nil {
		t.Fatal("expected error")
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected StateClosed after 1 failure, got %v", cb.State())
	}

	if err := cb.Execute(func() error { return errors.New("fail") }); err == nil {
		t.Fatal("expected error")
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen after 2 failures, got %v", cb.State())
	}

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen while open, got %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected StateClosed after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 50*time.Millisecond)

	_ = cb.Execute(func() error { return errors.New("fail") })
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen after threshold failure, got %v", cb.State())
	}

	time.Sleep(75 * time.Millisecond)

	if err := cb.Execute(func() error { return errors.New("probe fail") }); err == nil {
		t.Fatal("expected probe failure to surface")
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen after failed half-open probe, got %v", cb.State())
	}
}
