package infra

import (
	"testing"
	"time"
)

func TestDefaultBackoff(t *testing.T) {
	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 60 * time.Second},
		{100, 60 * time.Second},
	}

	for _, tt := range tests {
		if got := DefaultBackoff.Delay(tt.retryCount); got != tt.want {
			t.Errorf("Delay(%d) = %s, want %s", tt.retryCount, got, tt.want)
		}
	}
}

func TestBackoff_CustomPolicy(t *testing.T) {
	b := Backoff{Base: 100 * time.Millisecond, Max: time.Second}
	if got := b.Delay(2); got != 400*time.Millisecond {
		t.Errorf("Delay(2) = %s", got)
	}
	if got := b.Delay(4); got != time.Second {
		t.Errorf("Delay(4) = %s, want cap", got)
	}
}
