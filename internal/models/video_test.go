package models

import "testing"

func TestVideoStatusTerminal(t *testing.T) {
	tests := []struct {
		status VideoStatus
		want   bool
	}{
		{StatusReceived, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusError, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVideoStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from VideoStatus
		to   VideoStatus
		want bool
	}{
		{"received to processing", StatusReceived, StatusProcessing, true},
		{"received to error", StatusReceived, StatusError, true},
		{"received to completed", StatusReceived, StatusCompleted, false},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to error", StatusProcessing, StatusError, true},
		{"processing to received", StatusProcessing, StatusReceived, false},
		{"completed is terminal", StatusCompleted, StatusError, false},
		{"error is terminal", StatusError, StatusProcessing, false},
		{"error stays error", StatusError, StatusError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
