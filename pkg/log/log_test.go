package log

import (
	"path/filepath"
	"testing"

	"github.com/freighter-sh/freighter/pkg/config"
)

func TestNewLoggerNilConfig(t *testing.T) {
	if _, _, err := NewLogger(nil); err != config.ErrNilConfig {
		t.Errorf("NewLogger(nil) => %v, want %v", err, config.ErrNilConfig)
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Path = filepath.Join(t.TempDir(), "freighter.log")
	cfg.Log.Format = "json"

	logger, f, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger(cfg) => %v", err)
	}
	defer f.Close() // nolint: errcheck

	if logger == nil || f == nil {
		t.Fatal("expected logger and log file")
	}
}
