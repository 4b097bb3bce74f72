// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"strings"
	"sync"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound call made through the context.
type Sent struct {
	What any
	Opts []any
}

// Text returns What as a string, or "" for non-text payloads.
func (s Sent) Text() string {
	str, _ := s.What.(string)
	return str
}

// Markup returns the reply markup passed with the call, if any.
func (s Sent) Markup() *tele.ReplyMarkup {
	for _, o := range s.Opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}

// Context is a tele.Context backed by a fixed update. Methods it does not
// override panic through the nil embedded interface.
type Context struct {
	tele.Context

	mu        sync.Mutex
	upd       tele.Update
	store     map[string]any
	sent      []Sent
	edited    []Sent
	last      Sent
	responses []*tele.CallbackResponse
}

var nextUpdateID atomic.Int64

func newContext(upd tele.Update) *Context {
	upd.ID = int(nextUpdateID.Add(1))
	return &Context{upd: upd, store: make(map[string]any)}
}

// NewMessage builds a context for a message; text starting with "/" is
// treated as a command.
func NewMessage(chatID, userID int64, text string) *Context {
	m := &tele.Message{
		ID:     1,
		Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: userID, Username: "tester"},
		Text:   text,
	}
	if strings.HasPrefix(text, "/") {
		m.Entities = tele.Entities{{Type: tele.EntityCommand, Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	return newContext(tele.Update{Message: m})
}

// NewDocument builds a context for a document upload.
func NewDocument(chatID, userID int64, doc *tele.Document) *Context {
	c := NewMessage(chatID, userID, "")
	c.upd.Message.Document = doc
	return c
}

// NewCallback builds a context for a button press on a bot message in chatID.
func NewCallback(chatID, userID int64, unique, data string) *Context {
	cb := &tele.Callback{
		ID:      "cb",
		Sender:  &tele.User{ID: userID, Username: "tester"},
		Unique:  unique,
		Data:    data,
		Message: &tele.Message{ID: 10, Chat: &tele.Chat{ID: chatID}},
	}
	return newContext(tele.Update{Callback: cb})
}

func (c *Context) Update() tele.Update { return c.upd }

func (c *Context) Message() *tele.Message {
	switch {
	case c.upd.Message != nil:
		return c.upd.Message
	case c.upd.Callback != nil:
		return c.upd.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.upd.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.upd.Callback != nil:
		return c.upd.Callback.Sender
	case c.upd.Message != nil:
		return c.upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Recipient() tele.Recipient { return c.Chat() }

func (c *Context) Text() string {
	if c.upd.Message != nil {
		return c.upd.Message.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.upd.Callback != nil {
		return c.upd.Callback.Data
	}
	return c.Text()
}

func (c *Context) Args() []string {
	if c.upd.Callback != nil {
		return strings.Split(c.upd.Callback.Data, "|")
	}
	fields := strings.Fields(c.Text())
	if len(fields) > 1 {
		return fields[1:]
	}
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

func (c *Context) Send(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = Sent{What: what, Opts: opts}
	c.sent = append(c.sent, c.last)
	return nil
}

func (c *Context) Reply(what any, opts ...any) error { return c.Send(what, opts...) }

func (c *Context) Edit(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = Sent{What: what, Opts: opts}
	c.edited = append(c.edited, c.last)
	return nil
}

func (c *Context) EditOrSend(what any, opts ...any) error {
	if c.upd.Callback != nil {
		return c.Edit(what, opts...)
	}
	return c.Send(what, opts...)
}

func (c *Context) EditOrReply(what any, opts ...any) error { return c.EditOrSend(what, opts...) }

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		c.responses = append(c.responses, &tele.CallbackResponse{})
		return nil
	}
	c.responses = append(c.responses, resp...)
	return nil
}

// SentMessages returns everything sent or replied so far.
func (c *Context) SentMessages() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Edits returns every message edit so far.
func (c *Context) Edits() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.edited...)
}

// Responses returns every callback answer so far.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}

// Last returns the most recent send or edit.
func (c *Context) Last() Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// LastText returns the text of the most recent send or edit.
func (c *Context) LastText() string {
	return c.Last().Text()
}
