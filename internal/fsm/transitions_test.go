package fsm

import "testing"

func TestCanReachEventStatus(t *testing.T) {
	tests := []struct {
		name    string
		current EventStatus
		target  EventStatus
		want    bool
	}{
		{"processing to complete", EventProcessing, EventComplete, true},
		{"processing to interrupted", EventProcessing, EventInterrupted, true},
		{"processing to failed", EventProcessing, EventFailed, true},
		{"complete is terminal", EventComplete, EventInterrupted, false},
		{"interrupted is terminal", EventInterrupted, EventComplete, false},
		{"failed is terminal", EventFailed, EventComplete, false},
		{"unknown target rejected", EventProcessing, EventStatus("cancelled"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReachEventStatus(tt.current, tt.target); got != tt.want {
				t.Errorf("CanReachEventStatus(%s, %s) = %v, want %v", tt.current, tt.target, got, tt.want)
			}
		})
	}
}

func TestMP4StatusMachine_DAGHasNoBackwardEdges(t *testing.T) {
	m, err := NewMP4StatusMachine(MP4Optimized)
	if err != nil {
		t.Fatalf("NewMP4StatusMachine: %v", err)
	}
	if m.CanFire(ActionConvClaim) || m.CanFire(ActionOptSuccess) {
		t.Fatal("optimized must be terminal for the MP4 sub-state")
	}

	conv, err := NewMP4StatusMachine(MP4Pending)
	if err != nil {
		t.Fatalf("NewMP4StatusMachine: %v", err)
	}
	if !conv.CanFire(ActionConvClaim) {
		t.Fatal("pending must accept a conversion claim")
	}
	if conv.CanFire(ActionOptSuccess) {
		t.Fatal("pending must not accept an optimization success")
	}
}

func TestMP4StatusMachine_OptimizationOnlyAfterComplete(t *testing.T) {
	processing, err := NewMP4StatusMachine(MP4Processing)
	if err != nil {
		t.Fatalf("NewMP4StatusMachine: %v", err)
	}
	if processing.CanFire(ActionOptSuccess) {
		t.Fatal("optimization must not be reachable while conversion is still mid-flight")
	}

	complete, err := NewMP4StatusMachine(MP4Complete)
	if err != nil {
		t.Fatalf("NewMP4StatusMachine: %v", err)
	}
	if !complete.CanFire(ActionOptSuccess) {
		t.Fatal("optimization must be reachable once conversion has committed")
	}
}
