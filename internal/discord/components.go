package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/vinodismyname/itemsort/internal/compose"
	"github.com/vinodismyname/itemsort/pkg/boterr"
	"github.com/vinodismyname/itemsort/pkg/navigation"
)

// EmbedColor is the accent of every sort message.
const EmbedColor = 0x9b59b6

// PageMessage converts a results payload into message data: one embed for the
// title and filters, one for the body, then the tag menu and page buttons.
func PageMessage(p compose.Payload) *discordgo.InteractionResponseData {
	embeds := []*discordgo.MessageEmbed{
		{Title: p.Title, Description: p.Summary, Color: EmbedColor},
		{Description: p.Body, Color: EmbedColor},
	}
	components := []discordgo.MessageComponent{tagMenu(p.TagSelect)}
	if len(p.Controls) > 0 {
		components = append(components, buttonRow(p.Controls))
	}
	return &discordgo.InteractionResponseData{Embeds: embeds, Components: components}
}

// PickerMessage converts the item type chooser.
func PickerMessage(pk compose.Picker) *discordgo.InteractionResponseData {
	components := make([]discordgo.MessageComponent, 0, len(pk.Rows))
	for _, row := range pk.Rows {
		components = append(components, buttonRow(row))
	}
	return &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{{Title: pk.Title, Description: pk.Summary, Color: EmbedColor}},
		Components: components,
	}
}

// ErrorMessage is the ephemeral reply for a failed interaction.
func ErrorMessage(err error) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: boterr.UserMessage(err),
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}

func tagMenu(ts compose.TagSelect) discordgo.ActionsRow {
	minValues := ts.MinValues
	opts := make([]discordgo.SelectMenuOption, len(ts.Options))
	for i, o := range ts.Options {
		opts[i] = discordgo.SelectMenuOption{Label: o.Label, Value: o.Value, Default: o.Default}
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    ts.CustomID,
			Placeholder: ts.Placeholder,
			MinValues:   &minValues,
			MaxValues:   ts.MaxValues,
			Options:     opts,
		},
	}}
}

func buttonRow(controls []navigation.Control) discordgo.ActionsRow {
	buttons := make([]discordgo.MessageComponent, len(controls))
	for i, c := range controls {
		buttons[i] = discordgo.Button{Label: c.Label, Style: discordgo.PrimaryButton, CustomID: c.CustomID}
	}
	return discordgo.ActionsRow{Components: buttons}
}

// messageState returns the title and filter summary of a sort message.
func messageState(m *discordgo.Message) (title, summary string, ok bool) {
	if m == nil || len(m.Embeds) == 0 || m.Embeds[0] == nil {
		return "", "", false
	}
	return m.Embeds[0].Title, m.Embeds[0].Description, true
}

// componentResponse updates ephemeral messages in place and answers on any
// other message with a new ephemeral one.
func componentResponse(m *discordgo.Message, data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	if m != nil && m.Flags&discordgo.MessageFlagsEphemeral != 0 {
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseUpdateMessage, Data: data}
	}
	data.Flags |= discordgo.MessageFlagsEphemeral
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource, Data: data}
}
