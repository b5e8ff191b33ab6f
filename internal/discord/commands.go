package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/browse"
	"github.com/vinodismyname/itemsort/internal/items"
)

// Command and option names of the sort command.
const (
	CommandSort = "sort"
	AllItems    = "all-items"

	OptSortExpression = "sort-expression"
	OptWeaponElement  = "weapon-element"
	OptMinLevel       = "min-level"
	OptMaxLevel       = "max-level"
	OptAscending      = "ascending"
	OptCharacterID    = "char-id"
)

// Commands returns the application commands registered at startup.
func Commands() []*discordgo.ApplicationCommand {
	subs := make([]*discordgo.ApplicationCommandOption, 0, len(items.SortableItemTypes)+1)
	for _, t := range items.SortableItemTypes {
		subs = append(subs, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        string(t),
			Description: "Sort " + t.Pretty() + " by a stat expression",
			Options:     sortOptions(t == items.Weapon),
		})
	}
	subs = append(subs, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        AllItems,
		Description: "Pick an item type after choosing the sort expression",
		Options:     sortOptions(true),
	})
	return []*discordgo.ApplicationCommand{{
		Name:        CommandSort,
		Description: "Sort items by a stat expression such as \"str + dex\"",
		Options:     subs,
	}}
}

func sortOptions(withElement bool) []*discordgo.ApplicationCommandOption {
	minLevel := float64(config.DefaultMinLevel)
	opts := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        OptSortExpression,
		Description: "Stats to add up, e.g. \"str + 2*dex - crit\"",
		Required:    true,
	}}
	if withElement {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        OptWeaponElement,
			Description: "Only weapons of this element",
		})
	}
	return append(opts,
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        OptMinLevel,
			Description: "Minimum item level",
			MinValue:    &minLevel,
			MaxValue:    config.DefaultMaxLevel,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        OptMaxLevel,
			Description: "Maximum item level",
			MinValue:    &minLevel,
			MaxValue:    config.DefaultMaxLevel,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        OptAscending,
			Description: "Lowest values first",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        OptCharacterID,
			Description: "Only items in this character's inventory",
		},
	)
}

// RequestFromCommand reads a sort request from slash command data. The item
// type is empty for all-items.
func RequestFromCommand(data discordgo.ApplicationCommandInteractionData) (browse.Request, bool) {
	var req browse.Request
	if data.Name != CommandSort || len(data.Options) == 0 {
		return req, false
	}
	sub := data.Options[0]
	if sub.Type != discordgo.ApplicationCommandOptionSubCommand {
		return req, false
	}
	if sub.Name != AllItems {
		req.ItemType = sub.Name
	}
	for _, o := range sub.Options {
		switch o.Name {
		case OptSortExpression:
			req.Formula = o.StringValue()
		case OptWeaponElement:
			req.WeaponElement = o.StringValue()
		case OptMinLevel:
			req.MinLevel = items.IntPtr(int(o.IntValue()))
		case OptMaxLevel:
			req.MaxLevel = items.IntPtr(int(o.IntValue()))
		case OptAscending:
			req.Ascending = o.BoolValue()
		case OptCharacterID:
			req.CharacterID = o.StringValue()
		}
	}
	return req, true
}
