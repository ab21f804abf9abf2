package types

import (
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
)

// Module identifies a business vertical of the ERP. Every entity and
// every record belongs to exactly one module.
type Module string

const (
	ModuleRE      Module = "re"
	ModuleExpense Module = "expense"
)

func (m Module) Validate() error {
	switch m {
	case ModuleRE, ModuleExpense:
		return nil
	default:
		return ierr.NewError("invalid module").
			WithHintf("Module %s is not known", m).
			Mark(ierr.ErrValidation)
	}
}

func (m Module) String() string {
	return string(m)
}

// RunMode is the deployment mode of the service
type RunMode string

const (
	ModeLocal RunMode = "local"
	ModeProd  RunMode = "prod"
)

// LogLevel is the logging verbosity
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
