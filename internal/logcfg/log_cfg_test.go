package logcfg

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRunLoggerConfigSetsLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	logFile := filepath.Join(t.TempDir(), "bot.log")
	if err := RunLoggerConfig("debug", logFile); err != nil {
		t.Fatalf("RunLoggerConfig: %v", err)
	}
	if got := logrus.GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level: got %v, want %v", got, logrus.DebugLevel)
	}
}

func TestRunLoggerConfigRejectsUnknownLevel(t *testing.T) {
	if err := RunLoggerConfig("loud", ""); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestCallerPrettyfier(t *testing.T) {
	fn, file := callerPrettyfier(&runtime.Frame{File: "/src/app/service/gateway.go", Line: 42, Function: "service.(*Gateway).Ask"})
	if fn != "" {
		t.Errorf("function: got %q, want empty", fn)
	}
	if !strings.HasPrefix(file, "gateway.go.42.") {
		t.Errorf("file: got %q", file)
	}
}
