package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Patterns are matched case-insensitively with strings.Contains
// and the first match wins, so run-stage patterns come before the database
// patterns they usually wrap.
//
//	IMP001 pre sql query failed        IMP004 too many concurrent imports
//	IMP002 post sql query failed       IMP005 context canceled
//	IMP003 commit failed               IMP006 context deadline exceeded
//	MAP001 map not found               MAP003 no map selected / no fields
//	MAP002 key field(s) required       MAP004 decode atlas
//	FILE001 file too large             FILE004 no file provided
//	FILE002 invalid csv                FILE005 no data to process
//	FILE003 open excel
//	DB001..DB007 duplicate key, unique, foreign key, connection, timeout, deadlock
//	ERR000 fallback; the original error is only in the logs

import (
	"fmt"
	"strings"
)

// UserMessage is what a user sees for a failed import.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Run stages
	{
		pattern: "pre sql query failed",
		msg: UserMessage{
			Message: "The map's pre-import SQL failed; nothing was imported",
			Action:  "Check the map's pre SQL or enable continue on error",
			Code:    "IMP001",
		},
	},
	{
		pattern: "post sql query failed",
		msg: UserMessage{
			Message: "The map's post-import SQL failed; the import was rolled back",
			Action:  "Check the map's post SQL",
			Code:    "IMP002",
		},
	},
	{
		pattern: "commit failed",
		msg: UserMessage{
			Message: "The import could not be committed",
			Action:  "Please try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Import was cancelled",
			Action:  "Start a new import when ready",
			Code:    "IMP005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Import timed out",
			Action:  "Try importing a smaller file",
			Code:    "IMP006",
		},
	},

	// Maps
	{
		pattern: "map not found",
		msg: UserMessage{
			Message: "Map not found",
			Action:  "List the available maps and check the name",
			Code:    "MAP001",
		},
	},
	{
		pattern: "key field(s) required",
		msg: UserMessage{
			Message: "The map's action needs at least one key field",
			Action:  "Mark a field as key or switch the map to Insert",
			Code:    "MAP002",
		},
	},
	{
		pattern: "no map selected",
		msg: UserMessage{
			Message: "No map selected",
			Action:  "Choose a map to import with",
			Code:    "MAP003",
		},
	},
	{
		pattern: "has no fields",
		msg: UserMessage{
			Message: "The map has no fields",
			Action:  "Add at least one field to the map",
			Code:    "MAP003",
		},
	},
	{
		pattern: "decode atlas",
		msg: UserMessage{
			Message: "The map file could not be read",
			Action:  "Run csvimp validate on the map file",
			Code:    "MAP004",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check the delimiter and quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "open excel",
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Save the file as .xlsx or export it to CSV",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no data to process",
		msg: UserMessage{
			Message: "The file has no data rows",
			Action:  "Check the file and the header row setting",
			Code:    "FILE005",
		},
	},

	// Database
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Use an Append map to skip existing records",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import parent records first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try importing a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
