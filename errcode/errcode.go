package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"

	// Storage medium. MediumUnavailable is fatal for a whole wake cycle;
	// the per-operation codes are recoverable and only cost that operation.
	MediumUnavailable Code = "medium_unavailable"
	WriteFailed       Code = "write_failed"
	FlushFailed       Code = "flush_failed"
	RenameFailed      Code = "rename_failed"
	DeleteFailed      Code = "delete_failed"
	StatFailed        Code = "stat_failed"
	ReadFailed        Code = "read_failed"
	NotFound          Code = "not_found"

	// Retained memory region.
	RetainedInvalid  Code = "retained_invalid"
	RetainedTooSmall Code = "retained_too_small"

	// Fault is an unexpected panic contained at a cycle boundary.
	Fault Code = "fault"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C    Code
	Op   string
	Path string
	Msg  string
	Err  error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	} else if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.WriteFailed) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E for op on path, keeping cause.
func New(c Code, op, path string, cause error) *E {
	return &E{C: c, Op: op, Path: path, Err: cause}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}

// Fatal reports whether err ends the wake cycle's logging.
func Fatal(err error) bool {
	switch Of(err) {
	case MediumUnavailable, Fault:
		return true
	}
	return false
}
