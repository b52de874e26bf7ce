// Package relay delivers contact inquiries through the EmailJS transactional email API.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"firetechnics/site/internal/config"
	"firetechnics/site/internal/domain"
)

const sendPath = "/api/v1.0/email/send"

// ErrNotConfigured is returned when relay credentials are missing.
var ErrNotConfigured = errors.New("email relay is not configured")

// Relay sends one inquiry.
type Relay interface {
	Send(ctx context.Context, inquiry domain.Inquiry) error
}

type emailJSRelay struct {
	cfg        config.RelayConfig
	httpClient *resty.Client
}

func NewEmailJSRelay(cfg config.RelayConfig) Relay {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &emailJSRelay{cfg: cfg, httpClient: client}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (r *emailJSRelay) Send(ctx context.Context, inquiry domain.Inquiry) error {
	if !r.cfg.Configured() {
		return ErrNotConfigured
	}

	body := sendRequest{
		ServiceID:  r.cfg.ServiceID,
		TemplateID: r.cfg.TemplateID,
		UserID:     r.cfg.PublicKey,
		TemplateParams: map[string]string{
			"from_name":  inquiry.Name,
			"from_email": inquiry.Email,
			"phone":      inquiry.Phone,
			"program":    inquiry.Program,
			"message":    inquiry.Message,
			"language":   inquiry.Lang.String(),
			"reply_to":   inquiry.Email,
		},
	}

	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post(sendPath)
	if err != nil {
		return fmt.Errorf("failed to call email relay: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("email relay rejected inquiry %s: %d %s", inquiry.ID, resp.StatusCode(), resp.String())
	}

	log.Infof("📧 Inquiry %s relayed", inquiry.ID)
	return nil
}
