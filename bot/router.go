package bot

import (
	"context"
	"sort"
	"strings"

	"cinebot/models"
)

// HandlerFunc executes one command. arg is the message text after the prefix
// with surrounding whitespace stripped; it may be empty. The returned replies
// are transmitted in order.
type HandlerFunc func(ctx context.Context, arg, userID string) []models.Reply

// Command binds a message prefix to its handler. Commands are defined once at
// startup and never mutated.
type Command struct {
	Prefix string
	Handle HandlerFunc
}

// Router classifies inbound text by prefix. Longer prefixes are always tested
// before their sub-prefixes so that e.g. "!addwatched" is never shadowed by
// "!addwatch"; ties keep registration order.
type Router struct {
	commands []Command
}

func NewRouter(commands []Command) *Router {
	ordered := make([]Command, len(commands))
	copy(ordered, commands)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Prefix) > len(ordered[j].Prefix)
	})
	return &Router{commands: ordered}
}

// Match returns the first command whose prefix starts the text, along with
// the trimmed argument. Matching is case-sensitive. Unmatched text produces
// no action.
func (r *Router) Match(text string) (Command, string, bool) {
	for _, cmd := range r.commands {
		if strings.HasPrefix(text, cmd.Prefix) {
			return cmd, strings.TrimSpace(text[len(cmd.Prefix):]), true
		}
	}
	return Command{}, "", false
}
