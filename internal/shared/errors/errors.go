package errors

import "errors"

var (
	ErrMissingBotToken         = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingNotificationChat = errors.New("NOTIFICATION_CHAT_ID environment variable is required")
	ErrMissingAppCredentials   = errors.New("APP_ID and APP_API_HASH environment variables are required")
	ErrMissingPhoneNumber      = errors.New("PHONE_NUMBER is required to log in")
	ErrSessionNotFound         = errors.New("session not found")
	ErrNotAuthenticated        = errors.New("account is not authenticated")
	ErrChatUnresolved          = errors.New("chat could not be resolved")
)
