package logging

import "testing"

func TestNewLoggerWithService(t *testing.T) {
	l := NewLoggerWithService("warehouse-api")
	entry := l.WithField("k", "v")
	if entry == nil {
		t.Fatalf("expected non-nil entry")
	}
}

func TestNewTestLoggerIsSilent(t *testing.T) {
	l := NewTestLogger()
	l.Info("should go nowhere")
	if l == nil {
		t.Fatalf("expected logger")
	}
}
