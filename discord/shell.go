// Package discord is the thin I/O shell around the bot engine: it delivers
// inbound message events and transmits replies, carrying no decision logic of
// its own.
package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"cinebot/bot"
	"cinebot/models"
)

// Shell wraps a Discord gateway session.
type Shell struct {
	session *discordgo.Session
}

func NewShell(token string) (*Shell, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return &Shell{session: session}, nil
}

// Listen registers the inbound handler and opens the gateway connection.
// Messages authored by the bot itself are dropped here so the engine can
// never trigger itself.
func (s *Shell) Listen(engine *bot.Engine) error {
	s.session.AddHandler(func(ds *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		if ds.State.User != nil && m.Author.ID == ds.State.User.ID {
			return
		}
		engine.Handle(m.Content, m.Author.ID, m.ChannelID)
	})

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	if s.session.State.User != nil {
		log.Printf("[discord] connected as %s", s.session.State.User.Username)
	}
	return nil
}

func (s *Shell) Close() error {
	return s.session.Close()
}

// Send transmits one reply to the originating channel: plain content for text
// replies, an embed for cards.
func (s *Shell) Send(channelID string, reply models.Reply) error {
	if reply.Card == nil {
		_, err := s.session.ChannelMessageSend(channelID, reply.Text)
		return err
	}

	card := reply.Card
	embed := &discordgo.MessageEmbed{
		Title:       card.Title,
		Description: card.Body,
		Color:       card.Color,
	}
	for _, f := range card.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if card.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: card.ImageURL}
	}

	_, err := s.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
