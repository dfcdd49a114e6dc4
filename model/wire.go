package model

import "encoding/json"

// ProviderMessage is the wire-level message shape shared by all adapters:
// a role plus content that is either a plain string or an ordered list of
// typed parts. Internal bookkeeping fields never appear here; providers
// reject unknown fields.
type ProviderMessage struct {
	Role    string
	Content string
	// Parts, when non-nil, replaces Content on the wire with an ordered
	// array of typed parts (multimodal turns).
	Parts []WirePart
}

// WirePart is one element of a multimodal content array.
type WirePart struct {
	Type     string        `json:"type"` // "text" or "image_url"
	Text     string        `json:"text,omitempty"`
	ImageURL *WireImageURL `json:"image_url,omitempty"`
}

// WireImageURL carries an inline image as a data URI.
type WireImageURL struct {
	URL string `json:"url"`
}

// TextWirePart returns a text part.
func TextWirePart(text string) WirePart {
	return WirePart{Type: "text", Text: text}
}

// ImageWirePart returns an inline image part.
func ImageWirePart(dataURI string) WirePart {
	return WirePart{Type: "image_url", ImageURL: &WireImageURL{URL: dataURI}}
}

// MarshalJSON emits the provider JSON shape: content is a bare string for
// text-only messages and an array of typed parts otherwise. The output is
// deterministic for identical inputs, which the response cache relies on.
func (m ProviderMessage) MarshalJSON() ([]byte, error) {
	if m.Parts == nil {
		return json.Marshal(struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{Role: m.Role, Content: m.Content})
	}
	return json.Marshal(struct {
		Role    string     `json:"role"`
		Content []WirePart `json:"content"`
	}{Role: m.Role, Content: m.Parts})
}

// IsMultimodal reports whether the message carries typed parts.
func (m ProviderMessage) IsMultimodal() bool {
	return m.Parts != nil
}

// RawToolCall is the inbound tool-call payload of an agentic response, as
// delivered by the provider. Input and Output may each be a JSON object or
// a bare JSON string; the agentic package normalizes both shapes.
type RawToolCall struct {
	Type      string          `json:"type"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}
