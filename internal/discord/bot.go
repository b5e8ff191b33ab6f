// Package discord serves the sort command and its message components over a
// Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/itemsort/internal/browse"
	"github.com/vinodismyname/itemsort/internal/compose"
	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/telemetry"
	"github.com/vinodismyname/itemsort/pkg/boterr"
	"github.com/vinodismyname/itemsort/pkg/navigation"
)

// Runner bounds and times out one interaction.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Handler turns interactions into responses. It does no network I/O of its own.
type Handler struct {
	svc    *browse.Service
	runner Runner
	hooks  *telemetry.Hooks
	logger zerolog.Logger
}

// NewHandler returns a Handler. hooks may be nil.
func NewHandler(svc *browse.Service, runner Runner, hooks *telemetry.Hooks, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, runner: runner, hooks: hooks, logger: logger}
}

// Handle answers one interaction. Failures become an ephemeral error reply.
func (h *Handler) Handle(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	requestID := uuid.NewString()
	kind := interactionKind(i)
	logger := h.logger.With().Str("request_id", requestID).Str("interaction", kind).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	var resp *discordgo.InteractionResponse
	err := h.runner.Run(ctx, func(ctx context.Context) error {
		var err error
		resp, err = h.dispatch(ctx, i)
		return err
	})
	if h.hooks != nil {
		h.hooks.OnInteraction(requestID, kind, time.Since(start), err)
	}
	if err != nil {
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: ErrorMessage(err),
		}
	}
	return resp
}

func (h *Handler) dispatch(ctx context.Context, i *discordgo.Interaction) (*discordgo.InteractionResponse, error) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return h.command(ctx, i.ApplicationCommandData())
	case discordgo.InteractionMessageComponent:
		return h.component(ctx, i.Message, i.MessageComponentData())
	}
	return nil, boterr.Newf(boterr.Validation, "Unsupported interaction type %d.", i.Type)
}

func (h *Handler) command(ctx context.Context, data discordgo.ApplicationCommandInteractionData) (*discordgo.InteractionResponse, error) {
	req, ok := RequestFromCommand(data)
	if !ok {
		return nil, boterr.Newf(boterr.Validation, "Unknown command `%s`.", data.Name)
	}
	p, err := h.svc.Params(req)
	if err != nil {
		return nil, err
	}
	if p.ItemType == "" {
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: PickerMessage(h.svc.Picker(p, items.SortableItemTypes)),
		}, nil
	}
	payload, err := h.svc.Sort(ctx, p)
	if err != nil {
		return nil, err
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: PageMessage(payload),
	}, nil
}

func (h *Handler) component(ctx context.Context, m *discordgo.Message, data discordgo.MessageComponentInteractionData) (*discordgo.InteractionResponse, error) {
	title, summary, ok := messageState(m)
	if !ok {
		return nil, boterr.New(boterr.CursorInvalid, "")
	}
	var (
		payload compose.Payload
		err     error
	)
	switch navigation.KindOf(data.CustomID) {
	case navigation.KindPrevPage, navigation.KindNextPage:
		payload, err = h.svc.Navigate(ctx, data.CustomID, title, summary)
	case navigation.KindTagSelection:
		payload, err = h.svc.SelectTags(ctx, data.Values, title, summary)
	case navigation.KindShowResults:
		payload, err = h.svc.ShowType(ctx, data.CustomID, title, summary)
	default:
		return nil, boterr.Wrap(boterr.CursorInvalid, fmt.Errorf("%w: %q", navigation.ErrUnknownKind, data.CustomID))
	}
	if err != nil {
		return nil, err
	}
	return componentResponse(m, PageMessage(payload)), nil
}

func interactionKind(i *discordgo.Interaction) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return "command:" + i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return "component:" + string(navigation.KindOf(i.MessageComponentData().CustomID))
	}
	return fmt.Sprintf("type:%d", i.Type)
}

// Bot owns the gateway session.
type Bot struct {
	session *discordgo.Session
	handler *Handler
	guildID string
	logger  zerolog.Logger
}

// NewBot creates a session for token. Commands are registered in guildID, or
// globally when it is empty.
func NewBot(token, guildID string, handler *Handler, logger zerolog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	b := &Bot{session: s, handler: handler, guildID: guildID, logger: logger}
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects to the gateway and registers the commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, Commands()); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	b.logger.Info().Str("user", b.session.State.User.Username).Msg("discord bot ready")
	return nil
}

// Close disconnects the session.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	resp := b.handler.Handle(context.Background(), ic.Interaction)
	if err := s.InteractionRespond(ic.Interaction, resp); err != nil {
		b.logger.Error().Err(err).Str("interaction_id", ic.ID).Msg("interaction response failed")
	}
}
