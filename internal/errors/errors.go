package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidInput indicates a caller-contract violation (nil definition, mismatched names)
	InvalidInput ErrorCode = "INVALID_INPUT"
	// ParseFailed indicates a definition file could not be decoded
	ParseFailed ErrorCode = "PARSE_FAILED"
	// UnsupportedFormat indicates an unknown definition file format
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// InvalidDefinition indicates a decoded definition failed validation
	InvalidDefinition ErrorCode = "INVALID_DEFINITION"
	// DefinitionNotFound indicates the node type is not registered
	DefinitionNotFound ErrorCode = "DEFINITION_NOT_FOUND"
	// RegistrationRejected indicates the registration policy refused a change
	RegistrationRejected ErrorCode = "REGISTRATION_REJECTED"
	// StorageFailure indicates the registry database failed
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// ConfigInvalid indicates the configuration could not be loaded or validated
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditDefinition suggests changing the submitted definition
	EditDefinition FixActionType = "edit-definition"
	// MigrateContent suggests migrating stored content before retrying
	MigrateContent FixActionType = "migrate-content"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error represents an ntdiff error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the default fixes registered for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RegistrationRejected: {
		{
			Type:        MigrateContent,
			Description: "Migrate content stored under the old definition, then retry",
		},
		{
			Type:        RunCommand,
			Command:     "ntdiff register --force ${file}",
			Safe:        false,
			Description: "Register anyway, bypassing the severity policy",
		},
	},
	DefinitionNotFound: {
		{
			Type:        RunCommand,
			Command:     "ntdiff list",
			Safe:        true,
			Description: "List registered node types",
		},
	},
	InvalidDefinition: {
		{
			Type:        EditDefinition,
			Description: "Fix the reported field in the definition file",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditDefinition,
			Description: "Check .ntdiff/config.json and NTDIFF_* environment variables",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
