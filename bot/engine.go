package bot

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"cinebot/models"
)

// Sender transmits one reply to the originating channel.
type Sender interface {
	Send(channelID string, reply models.Reply) error
}

// handleTimeout bounds one message's full handling sequence, including every
// dependent upstream call.
const handleTimeout = 30 * time.Second

// Engine runs each inbound message as an independent unit of concurrency:
// one goroutine per message, so a slow multi-call command for one user never
// stalls replies to another.
type Engine struct {
	router  *Router
	sender  Sender
	timeout time.Duration
}

func NewEngine(router *Router, sender Sender) *Engine {
	return &Engine{router: router, sender: sender, timeout: handleTimeout}
}

// Handle classifies one inbound message and, when it matches a command, runs
// its handler on a fresh goroutine. Fire-and-forget: unmatched messages
// produce no action and no reply.
func (e *Engine) Handle(text, senderID, channelID string) {
	cmd, arg, ok := e.router.Match(text)
	if !ok {
		return
	}
	go e.run(cmd, arg, senderID, channelID)
}

func (e *Engine) run(cmd Command, arg, senderID, channelID string) {
	id := uuid.NewString()[:8]
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[bot] %s panic in %q handler: %v", id, cmd.Prefix, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	start := time.Now()
	replies := cmd.Handle(ctx, arg, senderID)
	for _, reply := range replies {
		if err := e.sender.Send(channelID, reply); err != nil {
			log.Printf("[bot] %s send to channel %s failed: %v", id, channelID, err)
		}
	}
	log.Printf("[bot] %s handled %q for user %s in %s (%d replies)", id, cmd.Prefix, senderID, time.Since(start).Round(time.Millisecond), len(replies))
}
