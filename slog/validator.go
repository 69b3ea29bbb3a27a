package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/confpub"
)

// Ensure LoggingValidator implements confpub.HTMLValidator.
var _ confpub.HTMLValidator = (*LoggingValidator)(nil)

// LoggingValidator wraps an HTMLValidator with logging.
type LoggingValidator struct {
	next   confpub.HTMLValidator
	logger *slog.Logger
}

// NewLoggingValidator creates a new LoggingValidator.
func NewLoggingValidator(next confpub.HTMLValidator, logger *slog.Logger) *LoggingValidator {
	return &LoggingValidator{next: next, logger: logger}
}

// Validate delegates to the wrapped validator and logs the outcome.
func (v *LoggingValidator) Validate(html string) (diags []confpub.Diagnostic, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"bytes", len(html),
			"diagnostics", len(diags),
			"duration", time.Since(begin),
		}
		if err != nil {
			v.logger.Warn("validate html", append(attrs, "err", confpub.ErrorMessage(err))...)
			return
		}
		v.logger.Debug("validate html", attrs...)
	}(time.Now())
	return v.next.Validate(html)
}
