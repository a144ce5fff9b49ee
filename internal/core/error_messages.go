package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Codes
//
// Database (DB001-DB099):
//
//	DB001 - Duplicate key            patterns: "duplicate key"
//	DB002 - Unique constraint        patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key              patterns: "foreign key"
//	DB004 - Connection refused       patterns: "connection refused"
//	DB005 - Connection reset         patterns: "connection reset"
//	DB006 - Timeout                  patterns: "timeout"
//	DB007 - Deadlock                 patterns: "deadlock"
//
// Validation (VAL001-VAL099):
//
//	VAL001 - Required field empty    patterns: "required field is empty"
//	VAL002 - Missing column          patterns: "missing required column"
//	VAL003 - Invalid metadata        patterns: "must be valid json"
//	VAL004 - Unknown field           ErrUnknownField
//	VAL005 - Invalid field list      ErrInvalidFieldSpec
//
// Resolution (RES001-RES099):
//
//	RES001 - Category or supplier could not be resolved   *ResolutionError
//
// File (FILE001-FILE099):
//
//	FILE001 - File too large         ErrFileTooLarge
//	FILE002 - Invalid CSV            patterns: "read csv"
//	FILE003 - Unsupported format     tabular.ErrUnsupportedFormat
//	FILE004 - No file                patterns: "no file provided"
//	FILE005 - Empty file             tabular.ErrEmptyFile
//	FILE006 - Unreadable workbook    patterns: "open workbook", "read sheet"
//
// Jobs (JOB001-JOB099):
//
//	JOB001 - Queue full              ErrQueueFull
//	JOB002 - Job not found           ErrJobNotFound
//	JOB003 - Shutting down           ErrRunnerClosed
//
// Import requests (IMP001-IMP099):
//
//	IMP001 - System busy             ErrTooManyImports
//	IMP002 - Request cancelled       context.Canceled
//	IMP003 - Request timeout         context.DeadlineExceeded
//
// Rate limiting (RATE001):            patterns: "rate limit"
//
// ERR000 is the fallback; check the logs for the technical error.
//
// Sentinels and typed errors are matched first with errors.Is/As, then
// the message is matched case-insensitively against the patterns in
// order. The first match wins, so specific patterns come first.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/materials/internal/tabular"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked before any pattern. Order matters: the
// limiter's timeout must win over context.DeadlineExceeded.
var sentinelMessages = []sentinelMessage{
	{ErrTooManyImports, UserMessage{"Too many imports in progress", "Please wait a moment and try again", "IMP001"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{tabular.ErrUnsupportedFormat, UserMessage{"File format is not supported", "Upload a .csv or .xlsx file", "FILE003"}},
	{tabular.ErrEmptyFile, UserMessage{"The uploaded file is empty", "Upload a file with a header row and data rows", "FILE005"}},
	{ErrUnknownField, UserMessage{"Unknown field requested", "Use only the documented field names", "VAL004"}},
	{ErrInvalidFieldSpec, UserMessage{"Invalid field list", "List each field once and include name, category and supplier for imports", "VAL005"}},
	{ErrQueueFull, UserMessage{"The import queue is full", "Please try again in a few minutes", "JOB001"}},
	{ErrJobNotFound, UserMessage{"Import job not found", "The job may have expired. Check the job ID", "JOB002"}},
	{ErrRunnerClosed, UserMessage{"The server is shutting down", "Please try again shortly", "JOB003"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "IMP002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP003"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraints
	{"duplicate key", UserMessage{"A record with this value already exists", "Review the rejected rows for duplicates", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries in your file", "DB002"}},
	{"violates unique", UserMessage{"This value must be unique but already exists", "Check for duplicate entries in your file", "DB002"}},
	{"foreign key", UserMessage{"Referenced category or supplier does not exist", "Check the category and supplier columns", "DB003"}},

	// Database connectivity
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Validation
	{"required field is empty", UserMessage{"Required field is empty", "Fill in name, category and supplier on every row", "VAL001"}},
	{"missing required column", UserMessage{"Required column is missing from the file", "Check that the header row has name, category and supplier", "VAL002"}},
	{"must be valid json", UserMessage{"Metadata is not valid JSON", "Leave metadata empty or enter a JSON value", "VAL003"}},

	// File
	{"no file provided", UserMessage{"No file was selected", "Please select a .csv or .xlsx file", "FILE004"}},
	{"read csv", UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with balanced quotes", "FILE002"}},
	{"open workbook", UserMessage{"Workbook could not be opened", "Re-save the file as .xlsx and try again", "FILE006"}},
	{"read sheet", UserMessage{"Workbook could not be opened", "Re-save the file as .xlsx and try again", "FILE006"}},

	// Rate limiting
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var resolutionMessage = UserMessage{
	Message: "A category or supplier could not be resolved",
	Action:  "Please try again; the other rows were imported",
	Code:    "RES001",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(ErrQueueFull)
//	// msg.Code == "JOB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resolutionMessage
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
