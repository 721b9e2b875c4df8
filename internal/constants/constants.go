package constants

import "time"

// Session
const (
	ContextKeyUserID = "user_id"
	SessionName      = "tasknot_session"
)

// Auth
const (
	MinPasswordLength = 8
)

// History feed
const (
	HistoryFeedLimit = 50
)

// Object storage
const (
	StorageKeyPrefix = "task-documents"
	SignedURLTTL     = time.Hour
)
