package fmtx

// Logger writes leveled console lines in the "Level: prefix: msg" shape the
// firmware has always printed. Debug lines are dropped unless Verbose is set.
type Logger struct {
	Prefix  string
	Verbose bool
}

func (l Logger) Infof(format string, a ...any)  { l.emit("Info", format, a...) }
func (l Logger) Warnf(format string, a ...any)  { l.emit("Warn", format, a...) }
func (l Logger) Errorf(format string, a ...any) { l.emit("Error", format, a...) }

func (l Logger) Debugf(format string, a ...any) {
	if l.Verbose {
		l.emit("Debug", format, a...)
	}
}

func (l Logger) emit(level, format string, a ...any) {
	msg := Sprintf(format, a...)
	if l.Prefix != "" {
		_, _ = Print(level + ": " + l.Prefix + ": " + msg + "\n")
		return
	}
	_, _ = Print(level + ": " + msg + "\n")
}
