package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/symptom-scout/internal/notify"
)

func TestParseToolPayload(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		res, err := ParseToolPayload([]byte(`{"status":"Sent","message":"ok"}`))
		require.NoError(t, err)
		assert.Equal(t, notify.EmailSent, res.Status)
	})

	t.Run("json encoded string", func(t *testing.T) {
		res, err := ParseToolPayload([]byte(`"{\"status\":\"SimulatedSkip\",\"message\":\"skipped\"}"`))
		require.NoError(t, err)
		assert.Equal(t, notify.EmailSimulatedSkip, res.Status)
		assert.Equal(t, "skipped", res.Message)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := ParseToolPayload([]byte(`{"status":"Delivered","message":"ok"}`))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToolPayload([]byte(`"not json"`))
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseToolPayload(nil)
		assert.Error(t, err)
	})
}

func TestReconcileEmail(t *testing.T) {
	sent := notify.EmailToolResult{Status: notify.EmailSent, Message: "Email successfully simulated sending to a@example.com."}

	tests := []struct {
		name        string
		trace       []ToolInvocation
		wantStatus  notify.EmailToolStatus
		wantMessage string
	}{
		{
			name:        "no trace",
			wantStatus:  notify.EmailFailed,
			wantMessage: "Email tool was not called by the LLM.",
		},
		{
			name:        "only other tools",
			trace:       []ToolInvocation{{Name: "lookupCalendar", Response: &ToolResponse{Result: sent}}},
			wantStatus:  notify.EmailFailed,
			wantMessage: "Email tool was not called by the LLM.",
		},
		{
			name:        "request without response",
			trace:       []ToolInvocation{{Name: notify.EmailToolName}},
			wantStatus:  notify.EmailFailed,
			wantMessage: "LLM requested email tool, but no valid response part found or response malformed.",
		},
		{
			name:        "parse error",
			trace:       []ToolInvocation{{Name: notify.EmailToolName, Response: &ToolResponse{ParseErr: errors.New("bad json")}}},
			wantStatus:  notify.EmailFailed,
			wantMessage: "Could not parse email tool response: bad json",
		},
		{
			name:        "invalid result",
			trace:       []ToolInvocation{{Name: notify.EmailToolName, Response: &ToolResponse{Result: notify.EmailToolResult{Status: "Nope", Message: "x"}}}},
			wantStatus:  notify.EmailFailed,
			wantMessage: "Could not parse email tool response: status: invalid enum value \"Nope\", expected Sent, Failed or SimulatedSkip",
		},
		{
			name:        "sent",
			trace:       []ToolInvocation{{Name: notify.EmailToolName, Response: &ToolResponse{Result: sent}}},
			wantStatus:  notify.EmailSent,
			wantMessage: sent.Message,
		},
		{
			name: "latest invocation wins",
			trace: []ToolInvocation{
				{Name: notify.EmailToolName, Response: &ToolResponse{Result: notify.EmailToolResult{Status: notify.EmailFailed, Message: "first try"}}},
				{Name: notify.EmailToolName, Response: &ToolResponse{Result: sent}},
			},
			wantStatus:  notify.EmailSent,
			wantMessage: sent.Message,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileEmail(tt.trace)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}
