package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/domain"
)

// LogSender writes notices to the log.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notice at info level.
func (s *LogSender) Send(_ context.Context, notice domain.Notice) error {
	s.logger.Info().
		Str("account_id", notice.AccountID).
		Str("reference_id", notice.ReferenceID).
		Time("created_at", notice.CreatedAt).
		Msg(notice.Message)
	return nil
}
