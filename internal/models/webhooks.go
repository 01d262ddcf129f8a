package models

import "encoding/json"

// WhatsApp Cloud API webhook payload for the "messages" field. All content
// variants are explicit optional fields so that structurally unexpected
// payloads decode into a known shape instead of failing at arbitrary depth.

type WebhookEnvelope struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry is one delivery unit. Its ID is the delivery identifier the
// canonical message reuses, so webhook re-delivery stays detectable even if
// message-internal identifiers collide.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         *ChangeMetadata   `json:"metadata,omitempty"`
	Contacts         []WebhookContact  `json:"contacts,omitempty"`
	Messages         []IncomingMessage `json:"messages,omitempty"`
}

type ChangeMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	WaID    string         `json:"wa_id"`
	Profile ContactProfile `json:"profile"`
}

type ContactProfile struct {
	Name string `json:"name"`
}

// IncomingMessage is one platform message inside a change. Type is the
// platform-reported content type and is authoritative for dispatch; the
// per-type fields are nil when absent.
type IncomingMessage struct {
	ID        string           `json:"id"`
	From      string           `json:"from"`
	Timestamp json.Number      `json:"timestamp"`
	Type      string           `json:"type"`
	Text      *TextContent     `json:"text,omitempty"`
	Image     *MediaContent    `json:"image,omitempty"`
	Video     *MediaContent    `json:"video,omitempty"`
	Audio     *AudioContent    `json:"audio,omitempty"`
	Document  *DocumentContent `json:"document,omitempty"`
	Sticker   *MediaContent    `json:"sticker,omitempty"`
	Location  *LocationContent `json:"location,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

// MediaContent references media by opaque identifier or URL. The bridge
// never fetches or stores the bytes.
type MediaContent struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// Identifier returns the media reference, preferring the platform media ID
// over a direct link.
func (m *MediaContent) Identifier() string {
	if m == nil {
		return ""
	}
	if m.ID != "" {
		return m.ID
	}
	return m.Link
}

type AudioContent struct {
	MediaContent
	Voice bool `json:"voice,omitempty"`
}

type DocumentContent struct {
	MediaContent
	Filename string `json:"filename,omitempty"`
}

type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}
