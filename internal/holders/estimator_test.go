package holders

import "testing"

func TestGate_Exceeds(t *testing.T) {
	gate := NewGate(100)

	tests := []struct {
		name     string
		estimate int
		want     bool
	}{
		{name: "zero holders", estimate: 0, want: false},
		{name: "below threshold", estimate: 99, want: false},
		{name: "exactly threshold", estimate: 100, want: false},
		{name: "just above threshold", estimate: 101, want: true},
		{name: "fail-open sentinel", estimate: FailOpenSentinel, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Exceeds(tt.estimate); got != tt.want {
				t.Errorf("Exceeds(%d) = %v, want %v", tt.estimate, got, tt.want)
			}
		})
	}
}

func TestNewGate_DefaultThreshold(t *testing.T) {
	gate := NewGate(0)

	if gate.Exceeds(DefaultThreshold) {
		t.Errorf("Expected estimate %d to pass the default gate", DefaultThreshold)
	}
	if !gate.Exceeds(DefaultThreshold + 1) {
		t.Errorf("Expected estimate %d to exceed the default gate", DefaultThreshold+1)
	}
}
