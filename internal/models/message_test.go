package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

func TestParsePayloadText(t *testing.T) {
	p, err := models.ParsePayload(models.MessageText, "hello", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, p.Type)
	assert.Equal(t, "hello", p.Content)

	_, err = models.ParsePayload(models.MessageText, "", "", nil, nil)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}

func TestParsePayloadMedia(t *testing.T) {
	for _, mt := range []models.MessageType{
		models.MessagePhoto, models.MessageVideo, models.MessageAudio,
		models.MessageDocument, models.MessageAnimation, models.MessageVoice,
	} {
		p, err := models.ParsePayload(mt, "", "https://cdn.example.com/file", nil, nil)
		require.NoError(t, err, string(mt))
		assert.Equal(t, mt, p.Type)
		assert.Equal(t, "https://cdn.example.com/file", p.MediaURL)

		_, err = models.ParsePayload(mt, "", "", nil, nil)
		assert.Error(t, err, string(mt))
	}
}

func TestParsePayloadLocation(t *testing.T) {
	p, err := models.ParsePayload(models.MessageLocation, "", "", &models.Location{Latitude: 50.45, Longitude: 30.52}, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Location)
	assert.Equal(t, 50.45, p.Location.Latitude)

	_, err = models.ParsePayload(models.MessageLocation, "", "", &models.Location{Latitude: 91, Longitude: 0}, nil)
	assert.Error(t, err)

	_, err = models.ParsePayload(models.MessageLocation, "", "", nil, nil)
	assert.Error(t, err)
}

func TestParsePayloadContact(t *testing.T) {
	contact := &models.Contact{PhoneNumber: "+380501112233", FirstName: "Ivan"}
	p, err := models.ParsePayload(models.MessageContact, "", "", nil, contact)
	require.NoError(t, err)
	require.NotNil(t, p.Contact)
	assert.Equal(t, "Ivan", p.Contact.FirstName)

	_, err = models.ParsePayload(models.MessageContact, "", "", nil, &models.Contact{PhoneNumber: "+380501112233"})
	assert.Error(t, err)
}

func TestParsePayloadUnknownType(t *testing.T) {
	_, err := models.ParsePayload("sticker", "x", "", nil, nil)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}

func TestAllowedReactions(t *testing.T) {
	for _, r := range models.AllowedReactions {
		assert.True(t, models.IsAllowedReaction(r))
	}
	assert.False(t, models.IsAllowedReaction("😀"))
	assert.False(t, models.IsAllowedReaction(""))
}

func TestPayloadApply(t *testing.T) {
	p, err := models.NewMediaPayload(models.MessagePhoto, "https://cdn.example.com/pic.jpg")
	require.NoError(t, err)

	var msg models.Message
	p.Apply(&msg)
	assert.Equal(t, models.MessagePhoto, msg.Type)
	assert.Equal(t, "https://cdn.example.com/pic.jpg", msg.MediaURL)
	assert.Empty(t, msg.Content)
}
