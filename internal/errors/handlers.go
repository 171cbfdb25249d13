package errors

import (
	"fmt"

	"github.com/dpshade/pocket-compose/internal/logger"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for the CLI
type CLIErrorHandler struct {
	Verbose bool
	log     *logger.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, log *logger.Logger) *CLIErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CLIErrorHandler{Verbose: verbose, log: log}
}

// HandleError logs err and returns it formatted for display
func (h *CLIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)

	fields := []interface{}{"code", appErr.Code, "severity", appErr.Severity}
	if appErr.Cause != nil {
		fields = append(fields, "cause", appErr.Cause.Error())
	}
	for k, v := range appErr.Context {
		fields = append(fields, k, v)
	}
	h.log.Error(appErr.Message, fields...)

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	msg := appErr.Message
	if h.Verbose {
		if appErr.Details != "" {
			msg += fmt.Sprintf(" (%s)", appErr.Details)
		}
		if appErr.Cause != nil {
			msg += fmt.Sprintf(": %v", appErr.Cause)
		}
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", msg)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", msg)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", msg)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", msg)
	default:
		return fmt.Sprintf("❌ %s", msg)
	}
}

// TUIErrorHandler formats errors for the terminal browser
type TUIErrorHandler struct {
	ShowDetails bool
}

// FormatError formats an error for TUI display
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)
	if h.ShowDetails && appErr.Details != "" {
		return fmt.Sprintf("%s\nDetails: %s", appErr.Message, appErr.Details)
	}
	return appErr.Message
}

// HandleError returns err unchanged as an AppError
func (h *TUIErrorHandler) HandleError(err error) error {
	return GetAppError(err)
}

// Icon returns the glyph the TUI shows next to an error
func (h *TUIErrorHandler) Icon(err error) string {
	switch GetAppError(err).Severity {
	case SeverityCritical:
		return "🔥"
	case SeverityWarning:
		return "⚠️"
	case SeverityInfo:
		return "ℹ️"
	default:
		return "❌"
	}
}
