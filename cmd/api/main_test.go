package main

import (
	"context"
	"testing"

	appconfig "github.com/wolfman30/symptom-scout/internal/config"
)

func TestRunFailsWithoutProvider(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: "auto", LogLevel: "error", SessionStore: "memory"}
	if err := run(context.Background(), cfg); err == nil {
		t.Fatalf("expected error when no llm provider is configured")
	}
}
