package logger

// Nop discards everything. Useful in tests and for library callers that bring no logger.
type Nop struct{}

func (n Nop) WithField(string, any) Logger      { return n }
func (n Nop) WithFields(map[string]any) Logger { return n }
func (n Nop) WithError(error) Logger           { return n }

func (Nop) Trace(...any) {}
func (Nop) Debug(...any) {}
func (Nop) Info(...any)  {}
func (Nop) Warn(...any)  {}
func (Nop) Error(...any) {}
func (Nop) Fatal(...any) {}

func (Nop) Tracef(string, ...any) {}
func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
func (Nop) Fatalf(string, ...any) {}

func (Nop) SetLevel(Level)  {}
func (Nop) GetLevel() Level { return Disabled }
