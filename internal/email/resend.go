package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// sendViaResend delivers through the Resend HTTP API. Rate limit responses
// are surfaced to the caller; retry policy belongs to whoever queued the
// message, not here.
func (s *Service) sendViaResend(ctx context.Context, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		return fmt.Errorf("resend client not initialized")
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit hit")
			return fmt.Errorf("resend rate limited, resets in %s seconds: %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend send: %w", err)
	}

	s.logger.Debug().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("delivered via resend")
	return nil
}
