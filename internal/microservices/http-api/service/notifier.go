package service

import (
	"context"
	"log/slog"
)

// LogNotifier writes confirmation codes to the structured log instead of
// sending mail. Swapped for a real mail dispatcher in deployments that have
// one; constructed and injected in main, never read from global state.
type LogNotifier struct {
	logger *slog.Logger
	from   string
}

func NewLogNotifier(logger *slog.Logger, from string) *LogNotifier {
	return &LogNotifier{logger: logger, from: from}
}

func (n *LogNotifier) SendConfirmationCode(ctx context.Context, email, code string) error {
	n.logger.InfoContext(ctx, "confirmation code issued",
		"from", n.from,
		"to", email,
		"code", code,
	)
	return nil
}
