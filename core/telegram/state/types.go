package state

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// InputKind is the type of inbound message a continuation waits for.
type InputKind string

// Input kinds delivered by the transport.
const (
	KindText     InputKind = "text"
	KindDocument InputKind = "document"
	KindPhoto    InputKind = "photo"
	KindVideo    InputKind = "video"
	KindAudio    InputKind = "audio"
	KindSticker  InputKind = "sticker"
	KindVoice    InputKind = "voice"
)

// InputKinds lists every kind in routing order.
var InputKinds = []InputKind{KindText, KindDocument, KindPhoto, KindVideo, KindAudio, KindSticker, KindVoice}

// Endpoint returns the telebot endpoint that delivers messages of kind k.
func (k InputKind) Endpoint() string {
	switch k {
	case KindText:
		return tele.OnText
	case KindDocument:
		return tele.OnDocument
	case KindPhoto:
		return tele.OnPhoto
	case KindVideo:
		return tele.OnVideo
	case KindAudio:
		return tele.OnAudio
	case KindSticker:
		return tele.OnSticker
	case KindVoice:
		return tele.OnVoice
	}
	return ""
}

// KindOf classifies a message; commands are not an input kind.
func KindOf(m *tele.Message) (InputKind, bool) {
	switch {
	case m == nil:
		return "", false
	case m.Document != nil:
		return KindDocument, true
	case m.Photo != nil:
		return KindPhoto, true
	case m.Video != nil:
		return KindVideo, true
	case m.Audio != nil:
		return KindAudio, true
	case m.Sticker != nil:
		return KindSticker, true
	case m.Voice != nil:
		return KindVoice, true
	case m.Text != "" && !strings.HasPrefix(m.Text, "/"):
		return KindText, true
	}
	return "", false
}

// State is the conversation's position in its state machine.
type State string

// StateIdle indicates there is no pending input for the conversation.
const StateIdle State = "idle"

const awaitingPrefix = "awaiting:"

// Awaiting is the state of a conversation with a pending continuation for kind.
func Awaiting(kind InputKind) State {
	return State(awaitingPrefix + string(kind))
}

// Awaits reports the kind a conversation in state s is waiting for.
func (s State) Awaits() (InputKind, bool) {
	kind, ok := strings.CutPrefix(string(s), awaitingPrefix)
	return InputKind(kind), ok
}

// Continuation handles the input a conversation was waiting for.
type Continuation func(c tele.Context) error
