package models

import (
	"time"

	"github.com/google/uuid"
)

// ErrorReport is one normalized error alert ingested from the Telegram
// alerts channel (or pasted in via bulk import). Rows are append-only:
// RawMessage is preserved verbatim and never mutated after insert.
//
// TelegramMessageID is the dedup key. For alerts that arrive through the
// webhook or poll sync it is Telegram's own message id; for bulk imports
// it is synthesized from a rolling hash of the text so re-importing the
// same file is idempotent.
type ErrorReport struct {
	ID                uuid.UUID  `db:"id"                  json:"id"`
	RawMessage        string     `db:"raw_message"         json:"raw_message"`
	TelegramMessageID int64      `db:"telegram_message_id" json:"telegram_message_id"`
	UserEmail         *string    `db:"user_email"          json:"user_email,omitempty"`
	RoomID            *string    `db:"room_id"             json:"room_id,omitempty"`
	ErrorTimestamp    *time.Time `db:"error_timestamp"     json:"error_timestamp,omitempty"`
	ErrorMessage      *string    `db:"error_message"       json:"error_message,omitempty"`
	ErrorType         *string    `db:"error_type"          json:"error_type,omitempty"`
	ToolName          *string    `db:"tool_name"           json:"tool_name,omitempty"`
	LastMessage       *string    `db:"last_message"        json:"last_message,omitempty"`
	StackTrace        *string    `db:"stack_trace"         json:"stack_trace,omitempty"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
}
