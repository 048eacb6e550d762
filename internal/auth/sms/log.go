package sms

import (
	"context"
	"log/slog"

	"github.com/proskill/portal-auth/pkg/slogx"
)

// LogSender stands in for the live provider when Twilio credentials are
// absent. It writes the message to the service log and always succeeds,
// which keeps local development working end to end.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) SendOTP(ctx context.Context, to, code string) error {
	slogx.FromContext(ctx).InfoContext(ctx, "sms (log sender)",
		slog.String("kind", "otp"),
		slog.String("to", to),
		slog.String("body", otpBody(code)),
	)
	return nil
}

func (s *LogSender) SendWelcome(ctx context.Context, to, name string) error {
	slogx.FromContext(ctx).InfoContext(ctx, "sms (log sender)",
		slog.String("kind", "welcome"),
		slog.String("to", to),
		slog.String("body", welcomeBody(name)),
	)
	return nil
}
