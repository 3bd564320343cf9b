package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want *zapcore.Level
	}{
		{"debug", levelPtr(zapcore.DebugLevel)},
		{"info", levelPtr(zapcore.InfoLevel)},
		{"warn", levelPtr(zapcore.WarnLevel)},
		{"error", levelPtr(zapcore.ErrorLevel)},
		{"verbose", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseLevel(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, *got, *tt.want)
			}
		})
	}
}

func TestNopWith(t *testing.T) {
	l := NewNop().With(String("owner_id", "u1"))
	l.Info("discarded", Int("n", 1))
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() = %v, want nil", err)
	}
}

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }
