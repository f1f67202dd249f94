package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/symptom-scout/internal/app/bootstrap"
	"github.com/wolfman30/symptom-scout/internal/llm"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

const probePrompt = `Reply with a JSON object {"status":"ok"} and nothing else.`

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send one completion to the configured LLM provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.loadConfig()
			if provider != "" {
				cfg.LLMProvider = provider
				cfg.LLMFallbackProvider = ""
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)

			client, name, err := bootstrap.BuildLLMClient(cmd.Context(), cfg, awsLoader(cfg), logger)
			if err != nil {
				return err
			}
			if closer, ok := client.(llm.Closer); ok {
				defer closer.Close()
			}
			return probe(cmd, llm.NewInstrumentedClient(client, "probe", name, nil).WithTimeout(cfg.LLMTimeout), name)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "probe a single provider (bedrock, gemini, openai)")
	return cmd
}

type probeResult struct {
	Status string `json:"status"`
}

func probe(cmd *cobra.Command, client llm.Client, provider string) error {
	start := time.Now()
	resp, err := client.Complete(cmd.Context(), llm.Request{
		Messages:   []llm.Message{{Role: llm.RoleUser, Content: probePrompt}},
		MaxTokens:  64,
		JSONOutput: true,
	})
	latency := time.Since(start).Round(time.Millisecond)
	out := cmd.OutOrStdout()
	if err != nil {
		fmt.Fprintln(out, styleError.Render(fmt.Sprintf("%s failed after %s", provider, latency)))
		return err
	}

	if resp.Provider != "" {
		provider = resp.Provider
	}
	parsed, err := llm.ExtractJSON[probeResult](resp.Text, func(r probeResult) error {
		if r.Status == "" {
			return fmt.Errorf("status is required")
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(out, styleWarn.Render(fmt.Sprintf("%s answered in %s but not with the expected JSON", provider, latency)))
		return err
	}
	fmt.Fprintln(out, styleBot.Render(fmt.Sprintf("%s ok in %s (status=%s, tokens in=%d out=%d)",
		provider, latency, parsed.Status, resp.Usage.InputTokens, resp.Usage.OutputTokens)))
	return nil
}
