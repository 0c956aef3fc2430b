package main

import (
	"bytes"
	"strings"
	"testing"

	"expensetracker/internal/config"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	if got := strings.TrimSpace(out.String()); got != "expensetracker dev" {
		t.Fatalf("version output = %q", got)
	}
}

func TestServeFlagsRegistered(t *testing.T) {
	cmd := serveCmd()
	for _, name := range []string{"port", "amqp-url", "seed-demo", "trusted-proxies"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
}

func TestNewLoggerUsesConfiguredLevel(t *testing.T) {
	logger := newLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	if logger == nil {
		t.Fatal("nil logger")
	}
	if logger.Component() != "app" {
		t.Errorf("component = %q", logger.Component())
	}
}
