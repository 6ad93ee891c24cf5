package core

// error_messages.go maps conversion errors to user-facing messages with a
// code that support staff can look up.
//
// # Conversion Errors
//
//	HDR001 - Source header does not match the expected header
//	HDR002 - Mapping references a field missing from the source header
//	ROW001 - A source row has the wrong number of fields
//	MAP001 - A computed field could not be produced
//	CFG001 - The mapping definition is invalid
//	CFG002 - The converter was already used
//	STR001 - The source file could not be parsed or read
//	STR002 - The converted file could not be written
//	HOOK001 - The run was stopped by a row hook
//
// # Request Errors
//
//	RUN001 - Too many conversions in progress
//	RUN002 - Conversion was cancelled
//	RUN003 - Conversion timed out
//	RUN004 - Run not found
//	FILE001 - File too large
//	FILE002 - No file provided
//	DEF001 - Unknown mapping
//	DB001 - History database unavailable
//
//	ERR000 - Anything else; check the logs for the technical error
//
// Sentinel errors are matched with errors.Is first, in order, so more
// specific kinds come before general ones. Errors from outside the package
// fall back to case-insensitive substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked in order; ErrAlreadyRun must precede ErrConfiguration
// and the header case must precede ErrMapping.
var errorKinds = []errorKind{
	{ErrAlreadyRun, UserMessage{"This converter was already used", "Start a new conversion", "CFG002"}},
	{ErrTooManyRuns, UserMessage{"System is busy with other conversions", "Please wait a moment and try again", "RUN001"}},
	{context.Canceled, UserMessage{"Conversion was cancelled", "Start a new conversion when ready", "RUN002"}},
	{context.DeadlineExceeded, UserMessage{"Conversion timed out", "Try a smaller file or try again later", "RUN003"}},
	{ErrRunNotFound, UserMessage{"Conversion run not found", "Check the run ID", "RUN004"}},
	{ErrUnknownDefinition, UserMessage{"Unknown mapping", "Choose one of the configured mappings", "DEF001"}},
	{ErrHook, UserMessage{"The conversion was stopped while processing a row", "Review the row reported in the error", "HOOK001"}},
	{ErrFieldNotFound, UserMessage{"The mapping refers to a column that is not in the file", "Check the file header against the mapping", "HDR002"}},
	{ErrInvalidSourceHeader, UserMessage{"The file header does not match the expected columns", "Verify column names and order match the mapping exactly", "HDR001"}},
	{ErrInvalidSourceRow, UserMessage{"A row has the wrong number of columns", "Check the reported row for missing or extra delimiters", "ROW001"}},
	{ErrMapping, UserMessage{"A computed column could not be produced", "Review the reported row and field", "MAP001"}},
	{ErrConfiguration, UserMessage{"The mapping definition is invalid", "Fix the mapping file and try again", "CFG001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that do not wrap a package sentinel.
var errorPatterns = []errorPattern{
	{"request body too large", UserMessage{"File exceeds the maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"file too large", UserMessage{"File exceeds the maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a file to convert", "FILE002"}},
	{"unterminated quoted field", UserMessage{"The file is not valid delimited text", "Check quoting near the reported line", "STR001"}},
	{"read source", UserMessage{"The file could not be read", "Check the file and its format settings", "STR001"}},
	{"write target", UserMessage{"The converted file could not be written", "Check free space and permissions on the target", "STR002"}},
	{"flush target", UserMessage{"The converted file could not be written", "Check free space and permissions on the target", "STR002"}},
	{"connection refused", UserMessage{"Unable to reach the history database", "Please try again in a few moments", "DB001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
