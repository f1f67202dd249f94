package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/symptom-scout/internal/config"
	"github.com/wolfman30/symptom-scout/internal/notify"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// BuildEmailTool creates the email tool the booking model calls, backed by the
// delivery channel named in EMAIL_DELIVERY. Skip domains apply to every channel.
func BuildEmailTool(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (*notify.EmailTool, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	from := notify.From{Address: cfg.EmailFromAddress, Name: cfg.EmailFromName}
	var mailer notify.Mailer

	delivery := strings.ToLower(strings.TrimSpace(cfg.EmailDelivery))
	switch delivery {
	case "", notify.ProviderSimulated:
		delivery = notify.ProviderSimulated
		mailer = notify.NewSimulatedMailer(logger)
	case notify.ProviderSendGrid:
		if cfg.SendGridAPIKey == "" || cfg.EmailFromAddress == "" {
			return nil, "", fmt.Errorf("bootstrap: SENDGRID_API_KEY and EMAIL_FROM_ADDRESS are required for sendgrid delivery")
		}
		mailer = notify.NewSendGridMailer(cfg.SendGridAPIKey, from, logger)
	case notify.ProviderSES:
		if cfg.EmailFromAddress == "" {
			return nil, "", fmt.Errorf("bootstrap: EMAIL_FROM_ADDRESS is required for ses delivery")
		}
		if loadAWS == nil {
			return nil, "", fmt.Errorf("bootstrap: aws config loader is required for ses delivery")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		mailer = notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), from, logger)
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown email delivery %q", cfg.EmailDelivery)
	}

	logger.Info("email tool configured", "delivery", delivery, "skip_domains", len(cfg.EmailSkipDomains))
	return notify.NewEmailTool(mailer, notify.EmailToolConfig{SkipDomains: cfg.EmailSkipDomains}, logger), delivery, nil
}
