package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campchat/backend/internal/storage"
)

func TestConversationKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, storage.ConversationKey("alice", "bob"), storage.ConversationKey("bob", "alice"))
	assert.Equal(t, "messages:alice:bob", storage.ConversationKey("bob", "alice"))
}

func TestGroupMessagesKey(t *testing.T) {
	assert.Equal(t, "group_messages:group-1", storage.GroupMessagesKey("group-1"))
}
