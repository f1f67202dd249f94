package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/symptom-scout/internal/notify"
)

const (
	msgToolNotCalled  = "Email tool was not called by the LLM."
	msgToolNoResponse = "LLM requested email tool, but no valid response part found or response malformed."
)

// ParseToolPayload decodes an email tool response. The payload may be a JSON
// object or a JSON string holding one.
func ParseToolPayload(raw []byte) (notify.EmailToolResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return notify.EmailToolResult{}, errors.New("empty payload")
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return notify.EmailToolResult{}, fmt.Errorf("decode string payload: %w", err)
		}
		trimmed = []byte(strings.TrimSpace(inner))
	}

	var res notify.EmailToolResult
	if err := json.Unmarshal(trimmed, &res); err != nil {
		return notify.EmailToolResult{}, fmt.Errorf("decode payload: %w", err)
	}
	if err := res.Validate(); err != nil {
		return notify.EmailToolResult{}, fmt.Errorf("schema: %w", err)
	}
	return res, nil
}

// ReconcileEmail decides what actually happened to the confirmation email from
// the invoker's tool trace, never trusting the model's own claims. The latest
// email tool invocation wins when the model called it more than once.
func ReconcileEmail(trace []ToolInvocation) notify.EmailToolResult {
	var found *ToolInvocation
	for idx := range trace {
		if trace[idx].Name == notify.EmailToolName {
			found = &trace[idx]
		}
	}

	switch {
	case found == nil:
		return notify.EmailToolResult{Status: notify.EmailFailed, Message: msgToolNotCalled}
	case found.Response == nil:
		return notify.EmailToolResult{Status: notify.EmailFailed, Message: msgToolNoResponse}
	case found.Response.ParseErr != nil:
		return notify.EmailToolResult{
			Status:  notify.EmailFailed,
			Message: fmt.Sprintf("Could not parse email tool response: %v", found.Response.ParseErr),
		}
	}

	if err := found.Response.Result.Validate(); err != nil {
		return notify.EmailToolResult{
			Status:  notify.EmailFailed,
			Message: fmt.Sprintf("Could not parse email tool response: %v", err),
		}
	}
	return found.Response.Result
}
