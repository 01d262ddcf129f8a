package service

import (
	"wabridge/internal/errors"
	"wabridge/internal/models"
)

// NormalizeChange converts one platform message, with its surrounding
// change value, into the canonical envelope. It is a pure transform: one
// call per message, no side effects.
//
// deliveryID is the webhook entry identifier. The canonical message reuses
// it instead of the message-internal ID so the receiver can detect
// re-delivered webhook events.
func NormalizeChange(deliveryID string, change *models.ChangeValue, msg *models.IncomingMessage) (*models.Message, error) {
	if deliveryID == "" {
		return nil, errors.NewValidationError("entry.id", "missing delivery identifier")
	}
	if msg == nil || msg.From == "" {
		return nil, errors.NewValidationError("message.from", "missing message sender")
	}

	name := msg.From
	if contact := contactFor(change, msg.From); contact != nil && contact.Profile.Name != "" {
		name = contact.Profile.Name
	}

	// One conversation per remote contact: the contact is always the
	// sender, and the conversation ID doubles as the send destination.
	conversation := models.Conversation{ID: msg.From, Name: name}
	sender := models.User{
		ID:        msg.From,
		FirstName: name,
		Username:  msg.From,
		IsBot:     false,
	}

	content, msgType := normalizeContent(msg)

	date, _ := msg.Timestamp.Int64()

	return &models.Message{
		ID:           deliveryID,
		Conversation: conversation,
		Sender:       sender,
		Content:      content,
		Type:         msgType,
		Date:         date,
		Extra: &models.Extra{
			OriginalMessage: change,
		},
	}, nil
}

// normalizeContent maps the platform-reported content type, which is
// authoritative, onto the canonical type and its content value. Unmapped
// types become unsupported with nil content; the message is never dropped.
func normalizeContent(msg *models.IncomingMessage) (any, models.MessageType) {
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			return msg.Text.Body, models.MessageTypeText
		}
		return "", models.MessageTypeText
	case "image":
		return msg.Image.Identifier(), models.MessageTypePhoto
	case "video":
		return msg.Video.Identifier(), models.MessageTypeVideo
	case "audio":
		if msg.Audio == nil {
			return "", models.MessageTypeAudio
		}
		if msg.Audio.Voice {
			return msg.Audio.Identifier(), models.MessageTypeVoice
		}
		return msg.Audio.Identifier(), models.MessageTypeAudio
	case "document":
		if msg.Document == nil {
			return "", models.MessageTypeDocument
		}
		return msg.Document.Identifier(), models.MessageTypeDocument
	case "location":
		if msg.Location == nil {
			return nil, models.MessageTypeLocation
		}
		// Structured payload passes through unchanged.
		return msg.Location, models.MessageTypeLocation
	case "sticker":
		return msg.Sticker.Identifier(), models.MessageTypeSticker
	default:
		return nil, models.MessageTypeUnsupported
	}
}

func contactFor(change *models.ChangeValue, waID string) *models.WebhookContact {
	if change == nil {
		return nil
	}
	for i := range change.Contacts {
		if change.Contacts[i].WaID == waID {
			return &change.Contacts[i]
		}
	}
	return nil
}
