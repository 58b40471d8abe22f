package notifier

import (
	"errors"
	"testing"

	"github.com/genricoloni/cmusrpc/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDesktop_Notify(t *testing.T) {
	tests := []struct {
		name          string
		enabled       bool
		notifyErr     error
		expectedCalls int
		expectedWarns int
	}{
		{name: "Disabled", enabled: false},
		{name: "Enabled", enabled: true, expectedCalls: 1},
		{name: "Daemon Missing", enabled: true, notifyErr: errors.New("no dbus"), expectedCalls: 1, expectedWarns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			cfg := config.Default()
			cfg.Notify = tt.enabled

			d := New(zap.New(core), cfg)
			calls := 0
			d.notify = func(title, message, appIcon string) error {
				calls++
				if title != "cmusrpc" || message != "Can't connect to cmus" {
					t.Errorf("Unexpected notification %q: %q", title, message)
				}
				return tt.notifyErr
			}

			d.Notify("cmusrpc", "Can't connect to cmus")

			if calls != tt.expectedCalls {
				t.Errorf("Expected %d calls, got %d", tt.expectedCalls, calls)
			}
			if logs.Len() != tt.expectedWarns {
				t.Errorf("Expected %d warnings, got %d", tt.expectedWarns, logs.Len())
			}
		})
	}
}
