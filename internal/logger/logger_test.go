package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	log := New("debug")
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug to be enabled")
	}

	log = New("warn")
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be disabled at warn level")
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := New("loud")
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be enabled")
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug to be disabled")
	}
}
