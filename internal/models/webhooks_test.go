package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookEnvelopeDecode(t *testing.T) {
	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "ENTRY_ID",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550100", "phone_number_id": "123456789"},
					"contacts": [{"wa_id": "15550199", "profile": {"name": "Ada"}}],
					"messages": [{
						"id": "wamid.abc",
						"from": "15550199",
						"timestamp": "1693526400",
						"type": "text",
						"text": {"body": "hello"}
					}]
				}
			}]
		}]
	}`

	var envelope WebhookEnvelope
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	require.Len(t, envelope.Entry, 1)
	entry := envelope.Entry[0]
	assert.Equal(t, "ENTRY_ID", entry.ID)

	require.Len(t, entry.Changes, 1)
	change := entry.Changes[0]
	assert.Equal(t, "messages", change.Field)
	require.NotNil(t, change.Value.Metadata)
	assert.Equal(t, "123456789", change.Value.Metadata.PhoneNumberID)

	require.Len(t, change.Value.Contacts, 1)
	assert.Equal(t, "Ada", change.Value.Contacts[0].Profile.Name)

	require.Len(t, change.Value.Messages, 1)
	msg := change.Value.Messages[0]
	assert.Equal(t, "wamid.abc", msg.ID)
	assert.Equal(t, "15550199", msg.From)
	assert.Equal(t, "text", msg.Type)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello", msg.Text.Body)

	ts, err := msg.Timestamp.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1693526400), ts)
}

func TestWebhookAudioDecode(t *testing.T) {
	payload := `{
		"id": "wamid.voice",
		"from": "15550199",
		"timestamp": "1693526400",
		"type": "audio",
		"audio": {"id": "media-1", "mime_type": "audio/ogg; codecs=opus", "voice": true}
	}`

	var msg IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	require.NotNil(t, msg.Audio)
	assert.True(t, msg.Audio.Voice)
	assert.Equal(t, "media-1", msg.Audio.Identifier())
}

func TestWebhookLocationDecode(t *testing.T) {
	payload := `{
		"id": "wamid.loc",
		"from": "15550199",
		"timestamp": "1693526400",
		"type": "location",
		"location": {"latitude": 52.52, "longitude": 13.405, "name": "Office", "address": "Berlin"}
	}`

	var msg IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	require.NotNil(t, msg.Location)
	assert.InDelta(t, 52.52, msg.Location.Latitude, 0.0001)
	assert.InDelta(t, 13.405, msg.Location.Longitude, 0.0001)
	assert.Equal(t, "Office", msg.Location.Name)
}

func TestWebhookUnknownTypeDecodes(t *testing.T) {
	payload := `{
		"id": "wamid.x",
		"from": "15550199",
		"timestamp": "1693526400",
		"type": "reaction",
		"reaction": {"message_id": "wamid.abc", "emoji": "x"}
	}`

	var msg IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	assert.Equal(t, "reaction", msg.Type)
	assert.Nil(t, msg.Text)
}

func TestMediaContentIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		media    *MediaContent
		expected string
	}{
		{"nil media", nil, ""},
		{"id preferred over link", &MediaContent{ID: "m1", Link: "https://cdn.example/m1"}, "m1"},
		{"link fallback", &MediaContent{Link: "https://cdn.example/m1"}, "https://cdn.example/m1"},
		{"empty media", &MediaContent{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.media.Identifier())
		})
	}
}
