package apperrors

var (
	// Domain errors — used in chat/storage/chathub
	ErrMessageNotFound    = NotFound("message not found")
	ErrGroupNotFound      = NotFound("group not found")
	ErrBotNotFound        = NotFound("bot not found")
	ErrUserNotFound       = NotFound("user not found")
	ErrKeysNotFound       = NotFound("keys not found")
	ErrKeysAlreadyStored  = New(CodeDuplicateKey, "keys already stored for user")
	ErrNotGroupMember     = Unauthorized("user is not a group member")
	ErrNotGroupAdmin      = Unauthorized("only admins can perform this action")
	ErrNotGroupCreator    = Unauthorized("only the creator can perform this action")
	ErrCreatorImmutable   = Immutable("creator cannot be removed")
	ErrBotMessageReadOnly = Immutable("bot messages cannot be modified")
	ErrNotMessageSender   = Unauthorized("only the sender can modify the message")
	ErrGroupLocked        = Unauthorized("group is locked")
	ErrMembersMuted       = Unauthorized("only admins can send messages in this group")
	ErrInvalidReaction    = InvalidInput("reaction is not allowed")
	ErrInvalidWebhookURL  = InvalidInput("webhook URL must be a valid https:// URL")
	ErrReplyWrongChat     = InvalidInput("replied-to message is not in the same chat")
	ErrNotAuthenticated   = NotAuthenticated("authenticate first")
	ErrTamperedCiphertext = DecryptionFailed("ciphertext could not be authenticated")
)

func ErrCacheUnavailable(cause error) error {
	return Wrap(CodeUnavailable, "cache unavailable", cause)
}

func ErrBrokerUnavailable(cause error) error {
	return Wrap(CodeUnavailable, "broker unavailable", cause)
}

func ErrStoreFailed(cause error) error {
	return Wrap(CodeInternal, "store operation failed", cause)
}

func ErrWebhookFailed(cause error) error {
	return Wrap(CodeWebhookFailed, "webhook call failed", cause)
}
