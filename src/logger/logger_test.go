package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != L {
		t.Fatal("expected global logger when context carries none")
	}

	var buf bytes.Buffer
	scoped := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("hello", "k", "v")

	if !bytes.Contains(buf.Bytes(), []byte("k=v")) {
		t.Fatalf("expected scoped logger output, got %q", buf.String())
	}
}
