package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/internal/chat"
	appconfig "github.com/wolfman30/symptom-scout/internal/config"
	"github.com/wolfman30/symptom-scout/internal/llm"
	"github.com/wolfman30/symptom-scout/internal/observability/metrics"
	"github.com/wolfman30/symptom-scout/internal/triage"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// Deps carries collaborators the binaries may override.
type Deps struct {
	// Registerer receives the triage metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	// LoadAWS is called at most once, only when Bedrock or SES is selected.
	LoadAWS AWSConfigLoader
	// LLM replaces provider selection when set. Used by tests and the probe command.
	LLM llm.Client
}

// App is the fully wired chat surface shared by the HTTP server and the
// terminal client.
type App struct {
	Chat          *chat.Service
	Handler       *chat.Handler
	Metrics       *metrics.TriageMetrics
	Provider      string
	EmailDelivery string

	closers []func() error
}

// Close releases the session store connection and any LLM client resources.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildApp wires LLM client, prompt invokers, email tool, booking service,
// session store and orchestrator from config.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	loadAWS := onceAWS(deps.LoadAWS)

	app := &App{Metrics: metrics.NewTriageMetrics(deps.Registerer)}

	base := deps.LLM
	app.Provider = "custom"
	if base == nil {
		client, provider, err := BuildLLMClient(ctx, cfg, loadAWS, logger)
		if err != nil {
			return nil, err
		}
		base, app.Provider = client, provider
	}
	if closer, ok := base.(llm.Closer); ok {
		app.closers = append(app.closers, closer.Close)
	}

	triageClient := llm.NewInstrumentedClient(base, "triage", app.Provider, app.Metrics).WithTimeout(cfg.LLMTimeout)
	bookingClient := llm.NewInstrumentedClient(base, "booking", app.Provider, app.Metrics).WithTimeout(cfg.LLMTimeout)

	maxTokens := int32(cfg.LLMMaxTokens)
	triageInvoker := triage.NewLLMInvoker(triageClient, triage.InvokerConfig{MaxTokens: maxTokens}, logger)

	emailTool, delivery, err := BuildEmailTool(ctx, cfg, loadAWS, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.EmailDelivery = delivery
	bookingInvoker := booking.NewLLMInvoker(bookingClient, emailTool, booking.InvokerConfig{}, logger)
	booker := booking.NewService(bookingInvoker, app.Metrics, logger)

	store, closeStore, err := BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	orch := triage.NewOrchestrator(triageInvoker, booker, triage.Options{
		Policy:     triage.Policy{MaxTurns: cfg.MaxConversationTurns},
		Recorder:   app.Metrics,
		Checkpoint: store,
		Logger:     logger,
	})

	app.Chat = chat.NewService(orch, store, triageInvoker, logger)
	app.Handler = chat.NewHandler(app.Chat, logger)
	return app, nil
}

func onceAWS(load AWSConfigLoader) AWSConfigLoader {
	if load == nil {
		return nil
	}
	var (
		once   sync.Once
		awsCfg aws.Config
		err    error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() { awsCfg, err = load(ctx) })
		return awsCfg, err
	}
}
