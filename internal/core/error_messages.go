// # Error Codes Reference
//
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis. Sentinel errors are matched with errors.Is first; the
// remaining codes are found by case-insensitive substring patterns, first
// match wins.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          ErrFileTooLarge, "file too large"
//	FILE002 - Invalid CSV             "invalid csv"
//	FILE003 - Encoding error          "encoding error"
//	FILE004 - No file                 ErrNoFile, "no file provided"
//	FILE005 - Empty file              catalog.ErrEmptyFile
//	FILE006 - Missing header          catalog.ErrNoHeader
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload cancelled         context.Canceled, "upload cancelled"
//	UPL002 - System busy              ErrTooManyUploads
//	UPL003 - Session expired          ErrUploadNotFound
//	UPL005 - Request timeout          context.DeadlineExceeded
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Duplicate key             "duplicate key"
//	DB002 - Unique constraint         "unique constraint", "violates unique"
//	DB004 - Connection refused        "connection refused"
//	DB005 - Connection reset          "connection reset"
//	DB006 - Timeout                   "timeout"
//	DB007 - Deadlock                  "deadlock"
//	DB008 - Database locked           "database is locked"
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Unknown field            catalog.ErrUnknownField
//	CAT002 - Unknown category         catalog.ErrUnknownCategory
//	CAT003 - Invalid match key        "match key"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited            "rate limit"
//
// ERR000 is the fallback. Support staff should check the application logs
// for the technical error behind it.

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// ErrUploadNotFound is returned for unknown or expired upload ids.
var ErrUploadNotFound = errors.New("upload not found")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file has no data rows",
		Action:  "Please upload a CSV file with a header and at least one row",
		Code:    "FILE005",
	}
	msgNoHeader = UserMessage{
		Message: "The first row of the file is blank",
		Action:  "Put the column names in the first row",
		Code:    "FILE006",
	}
	msgCancelled = UserMessage{
		Message: "Upload was cancelled",
		Action:  "Start a new upload when ready",
		Code:    "UPL001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgUploadNotFound = UserMessage{
		Message: "Upload session not found",
		Action:  "The upload may have expired. Please start a new upload",
		Code:    "UPL003",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or try again later",
		Code:    "UPL005",
	}
	msgUnknownField = UserMessage{
		Message: "Unknown catalog field",
		Action:  "Use one of the fields listed by /api/fields",
		Code:    "CAT001",
	}
	msgUnknownCategory = UserMessage{
		Message: "Category not found",
		Action:  "Pick a category from the category list",
		Code:    "CAT002",
	}
)

// sentinelMessages are checked with errors.Is before any pattern.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{catalog.ErrEmptyFile, msgEmptyFile},
	{catalog.ErrNoHeader, msgNoHeader},
	{ErrTooManyUploads, msgBusy},
	{ErrUploadNotFound, msgUploadNotFound},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
	{catalog.ErrUnknownField, msgUnknownField},
	{catalog.ErrUnknownCategory, msgUnknownCategory},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"file too large", msgFileTooLarge},
	{"invalid csv", msgInvalidCSV},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8 CSV",
		Code:    "FILE003",
	}},
	{"no file provided", msgNoFile},
	{"upload cancelled", msgCancelled},

	{"duplicate key", UserMessage{
		Message: "A record with this key already exists",
		Action:  "Review the skipped rows for duplicates",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in your CSV",
		Code:    "DB002",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate key values",
		Code:    "DB002",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try uploading a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
	{"database is locked", UserMessage{
		Message: "The catalog file is locked by another process",
		Action:  "Wait for the other import to finish and try again",
		Code:    "DB008",
	}},

	{"match key", UserMessage{
		Message: "Invalid match key",
		Action:  "List text fields separated by commas, e.g. sku,title",
		Code:    "CAT003",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("read upload: %w", catalog.ErrEmptyFile))
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
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

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown to users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
