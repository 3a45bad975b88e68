package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("devices fetched", "count", 3)

		if !strings.Contains(buf.String(), "devices fetched") || !strings.Contains(buf.String(), "count=3") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "api")
		logger.Info("request")

		if !strings.Contains(buf.String(), "component=api") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("started")
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
	if a == b {
		t.Error("expected unique IDs")
	}
}

func TestBrowserCommand(t *testing.T) {
	const url = "http://localhost/thumbs/promo.png"

	tests := []struct {
		goos string
		name string
		args int
	}{
		{"darwin", "open", 1},
		{"linux", "xdg-open", 1},
		{"windows", "rundll32", 2},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, url)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if name != tt.name || len(args) != tt.args || args[len(args)-1] != url {
				t.Errorf("unexpected command %s %v", name, args)
			}
		})
	}

	t.Run("empty URL", func(t *testing.T) {
		if _, _, err := browserCommand("linux", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := OpenBrowser(""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument from OpenBrowser, got %v", err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		_, _, err := browserCommand("plan9", url)
		if err == nil || !strings.Contains(err.Error(), "unsupported platform: plan9") {
			t.Errorf("expected unsupported platform error, got %v", err)
		}
	})
}
