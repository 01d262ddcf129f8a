package types

import (
	"fmt"
	"time"
)

// ClientConfig represents the configuration for the Cloud API client
type ClientConfig struct {
	BaseURL       string        `json:"base_url" validate:"required,url"`
	APIVersion    string        `json:"api_version" validate:"required"`
	AccessToken   string        `json:"access_token" validate:"required"`
	PhoneNumberID string        `json:"phone_number_id" validate:"required"`
	Timeout       time.Duration `json:"timeout"`
}

// PhoneNumber is the business phone number record behind the bridge's
// access token. It is the source of the bot identity.
type PhoneNumber struct {
	ID                 string `json:"id"`
	VerifiedName       string `json:"verified_name"`
	DisplayPhoneNumber string `json:"display_phone_number"`
}

// Outbound request types, one per Cloud API message type

type TextPayload struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type MediaPayload struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type AudioPayload struct {
	Link  string `json:"link"`
	Voice bool   `json:"voice"`
}

// SendMessageRequest is the request body for the messages endpoint. Exactly
// one payload field is set, matching Type.
type SendMessageRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *TextPayload  `json:"text,omitempty"`
	Image            *MediaPayload `json:"image,omitempty"`
	Document         *MediaPayload `json:"document,omitempty"`
	Audio            *AudioPayload `json:"audio,omitempty"`
}

// SendMessageResponse represents the response from the messages endpoint
type SendMessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the platform identifier of the accepted message, if any.
func (r *SendMessageResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// GraphError is the error body returned by the Graph API
type GraphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph API error %d (%s): %s", e.Code, e.Type, e.Message)
}

// GraphErrorResponse wraps GraphError under the "error" key
type GraphErrorResponse struct {
	Error *GraphError `json:"error"`
}
