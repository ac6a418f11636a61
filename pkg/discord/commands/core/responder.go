package core

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/theme"
)

// ResponseType standardizes response flavours.
type ResponseType int

const (
	ResponseSuccess ResponseType = iota
	ResponseError
	ResponseWarning
	ResponseInfo
)

// ResponseConfig configures the next response.
type ResponseConfig struct {
	Ephemeral  bool
	Title      string
	Color      int
	WithEmbed  bool
	Components []discordgo.MessageComponent
}

// Responder sends standardized interaction responses.
type Responder struct {
	session *discordgo.Session
	config  ResponseConfig
}

// NewResponder creates a responder.
func NewResponder(session *discordgo.Session) *Responder {
	return &Responder{session: session}
}

// WithConfig returns a responder with the given configuration.
func (r *Responder) WithConfig(config ResponseConfig) *Responder {
	return &Responder{session: r.session, config: config}
}

// Success sends a success response.
func (r *Responder) Success(i *discordgo.InteractionCreate, message string) error {
	return r.sendResponse(i, message, ResponseSuccess)
}

// Error sends an error response.
func (r *Responder) Error(i *discordgo.InteractionCreate, message string) error {
	return r.sendResponse(i, message, ResponseError)
}

// Warning sends a warning response.
func (r *Responder) Warning(i *discordgo.InteractionCreate, message string) error {
	return r.sendResponse(i, message, ResponseWarning)
}

// Info sends an informational response.
func (r *Responder) Info(i *discordgo.InteractionCreate, message string) error {
	return r.sendResponse(i, message, ResponseInfo)
}

// Ephemeral sends a simple ephemeral response.
func (r *Responder) Ephemeral(i *discordgo.InteractionCreate, message string) error {
	config := r.config
	config.Ephemeral = true
	return r.WithConfig(config).Info(i, message)
}

func (r *Responder) sendResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	if r.config.WithEmbed {
		return r.sendEmbedResponse(i, message, responseType)
	}
	return r.sendTextResponse(i, message, responseType)
}

func (r *Responder) sendTextResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	var flags discordgo.MessageFlags
	if r.config.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    formatTextMessage(message, responseType),
			Flags:      flags,
			Components: r.config.Components,
		},
	})
}

func (r *Responder) sendEmbedResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	var flags discordgo.MessageFlags
	if r.config.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{r.createEmbed(message, responseType)},
			Flags:      flags,
			Components: r.config.Components,
		},
	})
}

func formatTextMessage(message string, responseType ResponseType) string {
	switch responseType {
	case ResponseSuccess:
		return "`✅` " + message
	case ResponseError:
		return "`❌` " + message
	case ResponseWarning:
		return "`⚠️` " + message
	default:
		return message
	}
}

func (r *Responder) createEmbed(message string, responseType ResponseType) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       r.colorForType(responseType),
	}
	if r.config.Title != "" {
		embed.Title = r.config.Title
	}
	return embed
}

func (r *Responder) colorForType(responseType ResponseType) int {
	if r.config.Color != 0 {
		return r.config.Color
	}
	switch responseType {
	case ResponseSuccess:
		return theme.Success()
	case ResponseError:
		return theme.Error()
	case ResponseWarning:
		return theme.Warning()
	case ResponseInfo:
		return theme.Info()
	default:
		return theme.Muted()
	}
}

// Autocomplete sends an autocomplete response, capped at Discord's 25 choices.
func (r *Responder) Autocomplete(i *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if len(choices) > 25 {
		choices = choices[:25]
	}
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

// Defer acknowledges the interaction for long-running work.
func (r *Responder) Defer(i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

// EditResponse edits the original response.
func (r *Responder) EditResponse(i *discordgo.InteractionCreate, content string) error {
	_, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

// EditResponseWithEmbed edits the original response with an embed.
func (r *Responder) EditResponseWithEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	_, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

// FollowUp sends a follow-up message.
func (r *Responder) FollowUp(i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags,
	})
	return err
}

// FollowUpWithEmbed sends a follow-up message with an embed.
func (r *Responder) FollowUpWithEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  flags,
	})
	return err
}

// EmbedBuilder builds standardized embeds.
type EmbedBuilder struct{}

// Success creates a success embed.
func (EmbedBuilder) Success(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Success(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Error creates an error embed.
func (EmbedBuilder) Error(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Error(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Info creates an informational embed.
func (EmbedBuilder) Info(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Info(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}
