// Package logrus backs logger.Logger with sirupsen/logrus
package logrus

import (
	"io"
	"os"

	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/sirupsen/logrus"
)

var levels = map[logger.Level]logrus.Level{
	logger.TraceLevel: logrus.TraceLevel,
	logger.DebugLevel: logrus.DebugLevel,
	logger.InfoLevel:  logrus.InfoLevel,
	logger.WarnLevel:  logrus.WarnLevel,
	logger.ErrorLevel: logrus.ErrorLevel,
	logger.FatalLevel: logrus.FatalLevel,
}

// Config describes how log lines are rendered
type Config struct {
	Level      string
	TimeFormat string
	Colored    bool
	JSON       bool
	Output     io.Writer
}

// Adapter exposes a logrus entry through logger.Logger
type Adapter struct {
	entry *logrus.Entry
}

var _ logger.Logger = (*Adapter)(nil)

// New builds a logrus-backed logger
func New(config Config) (*Adapter, error) {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetLevel(level)
	base.SetOutput(os.Stdout)
	if config.Output != nil {
		base.SetOutput(config.Output)
	}

	if config.JSON {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: config.TimeFormat})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: config.TimeFormat,
			ForceColors:     config.Colored,
			DisableColors:   !config.Colored,
		})
	}

	return &Adapter{entry: logrus.NewEntry(base)}, nil
}

func (a *Adapter) WithField(key string, value any) logger.Logger {
	return &Adapter{entry: a.entry.WithField(key, value)}
}

func (a *Adapter) WithFields(fields map[string]any) logger.Logger {
	return &Adapter{entry: a.entry.WithFields(fields)}
}

func (a *Adapter) WithError(err error) logger.Logger {
	return &Adapter{entry: a.entry.WithError(err)}
}

func (a *Adapter) Trace(args ...any) { a.entry.Trace(args...) }
func (a *Adapter) Debug(args ...any) { a.entry.Debug(args...) }
func (a *Adapter) Info(args ...any)  { a.entry.Info(args...) }
func (a *Adapter) Warn(args ...any)  { a.entry.Warn(args...) }
func (a *Adapter) Error(args ...any) { a.entry.Error(args...) }
func (a *Adapter) Fatal(args ...any) { a.entry.Fatal(args...) }

func (a *Adapter) Tracef(format string, args ...any) { a.entry.Tracef(format, args...) }
func (a *Adapter) Debugf(format string, args ...any) { a.entry.Debugf(format, args...) }
func (a *Adapter) Infof(format string, args ...any)  { a.entry.Infof(format, args...) }
func (a *Adapter) Warnf(format string, args ...any)  { a.entry.Warnf(format, args...) }
func (a *Adapter) Errorf(format string, args ...any) { a.entry.Errorf(format, args...) }
func (a *Adapter) Fatalf(format string, args ...any) { a.entry.Fatalf(format, args...) }

func (a *Adapter) SetLevel(level logger.Level) {
	if level == logger.Disabled {
		a.entry.Logger.SetOutput(io.Discard)
		return
	}
	if ll, ok := levels[level]; ok {
		a.entry.Logger.SetLevel(ll)
	}
}

func (a *Adapter) GetLevel() logger.Level {
	current := a.entry.Logger.GetLevel()
	for level, ll := range levels {
		if ll == current {
			return level
		}
	}
	return logger.NoLevel
}
