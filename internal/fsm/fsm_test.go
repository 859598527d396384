package fsm

import (
	"context"
	"errors"
	"testing"
)

type state string
type event string

const (
	stateA state = "a"
	stateB state = "b"
	stateC state = "c"
)

const (
	eventGo   event = "go"
	eventStop event = "stop"
)

func TestMachine_FireValidTransition(t *testing.T) {
	m, err := New(stateA, []Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB},
		{From: stateB, Event: eventGo, To: stateC},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	to, err := m.Fire(context.Background(), eventGo)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if to != stateB {
		t.Fatalf("expected stateB, got %s", to)
	}
	if m.State() != stateB {
		t.Fatalf("expected persisted state stateB, got %s", m.State())
	}
}

func TestMachine_FireInvalidTransitionIsError(t *testing.T) {
	m, err := New(stateA, []Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = m.Fire(context.Background(), eventStop)
	if err == nil {
		t.Fatal("expected error for invalid transition")
	}
	if m.State() != stateA {
		t.Fatalf("state must not change on invalid transition, got %s", m.State())
	}
}

func TestMachine_TerminalStateHasNoOutgoingTransitions(t *testing.T) {
	m, err := New(stateB, []Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.CanFire(eventGo) {
		t.Fatal("terminal state must not accept further events")
	}
}

func TestMachine_GuardRejectsTransition(t *testing.T) {
	guardErr := errors.New("guard rejected")
	m, err := New(stateA, []Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB, Guard: func(ctx context.Context, from state, e event) error {
			return guardErr
		}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = m.Fire(context.Background(), eventGo)
	if !errors.Is(err, guardErr) {
		t.Fatalf("expected guard error, got %v", err)
	}
	if m.State() != stateA {
		t.Fatalf("state must not change when guard rejects, got %s", m.State())
	}
}

func TestNew_DuplicateTransitionIsRejected(t *testing.T) {
	_, err := New(stateA, []Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB},
		{From: stateA, Event: eventGo, To: stateC},
	})
	if err == nil {
		t.Fatal("expected duplicate transition error")
	}
}
