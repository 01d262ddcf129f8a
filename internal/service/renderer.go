package service

import (
	"strings"

	"wabridge/internal/models"
	"wabridge/pkg/markup"
	"wabridge/pkg/whatsapp/types"
)

// RenderMessage builds the platform send request for one outbound canonical
// message. Types with no outbound mapping (location, sticker, unsupported)
// yield nil; the caller logs and drops those.
func RenderMessage(msg *models.Message) *types.SendMessageRequest {
	content, caption, preview := renderFields(msg)

	req := &types.SendMessageRequest{
		MessagingProduct: models.PlatformName,
		To:               msg.Conversation.ID,
	}

	switch msg.Type {
	case models.MessageTypeText:
		req.Type = "text"
		req.Text = &types.TextPayload{Body: content, PreviewURL: preview}
	case models.MessageTypePhoto, models.MessageTypeVideo:
		req.Type = "image"
		req.Image = &types.MediaPayload{Link: content, Caption: caption}
	case models.MessageTypeDocument:
		req.Type = "document"
		req.Document = &types.MediaPayload{Link: content}
	case models.MessageTypeAudio, models.MessageTypeVoice:
		req.Type = "audio"
		req.Audio = &types.AudioPayload{Link: content, Voice: msg.Type == models.MessageTypeVoice}
	default:
		return nil
	}

	return req
}

// renderFields applies the uniform pre-processing: HTML conversion when the
// format hint asks for it, then whitespace trimming. The hints are
// advisory; an absent Extra falls back to the plain content.
func renderFields(msg *models.Message) (content, caption string, preview bool) {
	content, _ = msg.Content.(string)

	if msg.Extra != nil {
		caption = msg.Extra.Caption
		preview = msg.Extra.Preview
		if msg.Extra.Format == "HTML" {
			content = markup.ToWhatsApp(content)
			caption = markup.ToWhatsApp(caption)
		}
	}

	return strings.TrimSpace(content), strings.TrimSpace(caption), preview
}
