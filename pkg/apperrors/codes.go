package apperrors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeDuplicateKey     Code = "DUPLICATE_KEY"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"
	CodeImmutable        Code = "IMMUTABLE"
	CodeDecryptionFailed Code = "DECRYPTION_FAILED"
	CodeWebhookFailed    Code = "WEBHOOK_FAILED"
	CodeUnavailable      Code = "DEPENDENCY_UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
)
