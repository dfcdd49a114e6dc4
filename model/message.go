// Package model defines the provider-agnostic core types of MetanoIA:
// messages and their content parts, the append-only conversation log, model
// profiles and the registry, the provider calling convention, and the wire
// shapes shared by all backend adapters.
//
// Everything a session owns is built from these types. Provider adapters
// translate them into SDK-specific requests; the model package itself never
// imports a provider SDK.
package model

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind discriminates the ContentPart union.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// ImageRef is a provider-ready image attachment. It is produced by the
// imageproc package and is guaranteed to satisfy the active provider's
// resolution and transport ceilings before it is ever placed in a Message.
type ImageRef struct {
	// DataURI is the self-describing textual transport representation,
	// data:<mime>;base64,<payload>.
	DataURI   string
	MimeType  string
	Width     int
	Height    int
	SizeBytes int
}

// ContentPart is one typed unit of message content: text or an image.
// Ordering of parts within a message is preserved and meaningful.
type ContentPart struct {
	Kind  PartKind
	Text  string
	Image *ImageRef
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Kind: PartText, Text: text}
}

// ImagePart returns an image content part.
func ImagePart(ref ImageRef) ContentPart {
	return ContentPart{Kind: PartImage, Image: &ref}
}

// Message is one turn in the conversation log. Messages are immutable once
// appended; the log owns them exclusively.
//
// ModelUsed and ToolResultRefs are internal bookkeeping; they are stripped
// before anything is sent to a provider (providers reject unknown fields).
type Message struct {
	Role  Role
	Parts []ContentPart

	// ModelUsed records which profile generated an assistant message.
	ModelUsed string

	// ToolResultRefs holds the IDs of tool-result records folded into the
	// store as part of this turn.
	ToolResultRefs []string

	Timestamp time.Time
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:      role,
		Parts:     []ContentPart{TextPart(text)},
		Timestamp: time.Now(),
	}
}

// NewUserMessage builds the current user turn: text first, then the image
// if one was attached (text-first ordering is the provider convention).
func NewUserMessage(text string, image *ImageRef) Message {
	parts := []ContentPart{TextPart(text)}
	if image != nil {
		parts = append(parts, ImagePart(*image))
	}
	return Message{
		Role:      RoleUser,
		Parts:     parts,
		Timestamp: time.Now(),
	}
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	out := ""
	for _, p := range m.Parts {
		if p.Kind == PartText {
			out += p.Text
		}
	}
	return out
}

// HasImage reports whether any part of the message is an image.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Kind == PartImage {
			return true
		}
	}
	return false
}
