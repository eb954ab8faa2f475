package email

import (
	"context"
	"log/slog"

	"github.com/teamspaceapp/teamspace/pkg/idx"
)

// LogSender writes mail to the log instead of a provider. Used in dev when
// no API key is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, subject, html string) (string, error) {
	id := "local-" + idx.New().String()
	s.Logger.Info("email send skipped, no provider configured",
		"to", to, "subject", subject, "message_id", id)
	return id, nil
}
