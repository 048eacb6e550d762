package sms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/proskill/portal-auth/pkg/slogx"
)

// TwilioConfig holds the provider credentials. Configured reports whether the
// settings are complete enough to build a live client; account SIDs always
// start with "AC", so anything else is treated as a placeholder.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" &&
		c.AuthToken != "" &&
		c.FromNumber != "" &&
		strings.HasPrefix(c.AccountSID, "AC")
}

// TwilioSender sends messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a live sender from complete credentials.
func NewTwilioSender(cfg TwilioConfig) (*TwilioSender, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("twilio credentials incomplete")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{client: client, from: cfg.FromNumber}, nil
}

func (s *TwilioSender) Name() string { return "twilio" }

func (s *TwilioSender) SendOTP(ctx context.Context, to, code string) error {
	return s.send(ctx, to, otpBody(code), "otp")
}

func (s *TwilioSender) SendWelcome(ctx context.Context, to, name string) error {
	return s.send(ctx, to, welcomeBody(name), "welcome")
}

func (s *TwilioSender) send(ctx context.Context, to, body, kind string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send %s: %w", kind, err)
	}

	logger := slogx.FromContext(ctx)
	attrs := []any{slog.String("kind", kind)}
	if resp.Sid != nil {
		attrs = append(attrs, slog.String("message_sid", *resp.Sid))
	}
	if resp.Status != nil {
		attrs = append(attrs, slog.String("status", *resp.Status))
	}
	logger.InfoContext(ctx, "sms sent", attrs...)

	return nil
}
