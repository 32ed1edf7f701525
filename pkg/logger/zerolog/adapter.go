package zerolog

import (
	"fmt"

	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/rs/zerolog"
)

var levels = map[logger.Level]zerolog.Level{
	logger.Disabled:   zerolog.Disabled,
	logger.TraceLevel: zerolog.TraceLevel,
	logger.DebugLevel: zerolog.DebugLevel,
	logger.InfoLevel:  zerolog.InfoLevel,
	logger.WarnLevel:  zerolog.WarnLevel,
	logger.ErrorLevel: zerolog.ErrorLevel,
	logger.FatalLevel: zerolog.FatalLevel,
	logger.NoLevel:    zerolog.NoLevel,
}

// Adapter exposes a zerolog logger through logger.Logger
type Adapter struct {
	log *zerolog.Logger
}

var _ logger.Logger = (*Adapter)(nil)

func NewAdapter(log *zerolog.Logger) *Adapter {
	return &Adapter{log: log}
}

func (a *Adapter) derive(ctx zerolog.Context) logger.Logger {
	derived := ctx.Logger()
	return &Adapter{log: &derived}
}

func (a *Adapter) WithField(key string, value any) logger.Logger {
	return a.derive(a.log.With().Interface(key, value))
}

func (a *Adapter) WithFields(fields map[string]any) logger.Logger {
	return a.derive(a.log.With().Fields(fields))
}

func (a *Adapter) WithError(err error) logger.Logger {
	return a.derive(a.log.With().Err(err))
}

func (a *Adapter) Trace(args ...any) { a.log.Trace().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Debug(args ...any) { a.log.Debug().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Info(args ...any)  { a.log.Info().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Warn(args ...any)  { a.log.Warn().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Error(args ...any) { a.log.Error().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Fatal(args ...any) { a.log.Fatal().Msg(fmt.Sprint(args...)) }

func (a *Adapter) Tracef(format string, args ...any) { a.log.Trace().Msgf(format, args...) }
func (a *Adapter) Debugf(format string, args ...any) { a.log.Debug().Msgf(format, args...) }
func (a *Adapter) Infof(format string, args ...any)  { a.log.Info().Msgf(format, args...) }
func (a *Adapter) Warnf(format string, args ...any)  { a.log.Warn().Msgf(format, args...) }
func (a *Adapter) Errorf(format string, args ...any) { a.log.Error().Msgf(format, args...) }
func (a *Adapter) Fatalf(format string, args ...any) { a.log.Fatal().Msgf(format, args...) }

// SetLevel changes the process-wide zerolog level
func (a *Adapter) SetLevel(level logger.Level) {
	if zl, ok := levels[level]; ok {
		zerolog.SetGlobalLevel(zl)
	}
}

func (a *Adapter) GetLevel() logger.Level {
	current := zerolog.GlobalLevel()
	if a.log.GetLevel() > current {
		current = a.log.GetLevel()
	}

	for level, zl := range levels {
		if zl == current {
			return level
		}
	}
	return logger.NoLevel
}
