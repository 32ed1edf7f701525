package notification

import (
	"context"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/logger"
)

// LogNotifier writes messages to the log instead of a chat. Used by dry runs.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Start(context.Context) error {
	return nil
}

func (l *LogNotifier) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.log.WithField("chat", chatID).Info(text)
	return nil
}

var _ core.NotifierWithStart = (*LogNotifier)(nil)
