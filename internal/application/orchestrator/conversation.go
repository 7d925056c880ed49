package orchestrator

import (
	"sync"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/google/uuid"
)

// DefaultGreeting opens every new conversation
const DefaultGreeting = "Namaste! I am Bharat Biz-Agent. How can I help your business today?"

// Conversation is the state of one shop's chat: the transcript, the invoice
// draft lifecycle and the voice preference. Turns on a conversation are
// serialized; records live in the stores behind the services.
type Conversation struct {
	id string

	turn sync.Mutex // held for a whole turn

	mu         sync.RWMutex
	transcript []entity.Message
	voice      bool

	lifecycle service.InvoiceLifecycle
}

// NewConversation starts a conversation seeded with greeting. An empty
// greeting uses DefaultGreeting.
func NewConversation(lifecycle service.InvoiceLifecycle, greeting string, voice bool) *Conversation {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Conversation{
		id:        uuid.NewString(),
		lifecycle: lifecycle,
		voice:     voice,
		transcript: []entity.Message{{
			Role: entity.RoleAgent,
			Text: greeting,
			At:   time.Now(),
		}},
	}
}

// ID identifies the conversation in logs and events
func (c *Conversation) ID() string {
	return c.id
}

// Transcript returns a copy of the messages so far
func (c *Conversation) Transcript() []entity.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entity.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Draft returns the pending draft invoice, or nil
func (c *Conversation) Draft() *entity.Invoice {
	return c.lifecycle.Draft()
}

// VoiceEnabled reports whether replies are spoken
func (c *Conversation) VoiceEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voice
}

// SetVoice turns spoken replies on or off
func (c *Conversation) SetVoice(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = on
}

func (c *Conversation) append(msgs ...entity.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, msgs...)
}
