package main

import (
	"fmt"

	"github.com/c360/confsync/config"
	"github.com/c360/confsync/field"
	"github.com/c360/confsync/schema"
)

// GameplayConfig is the demo synced config served by this binary. It
// exercises every built-in field type plus a nested section and a plain
// NonSync field.
type GameplayConfig struct {
	config.Base

	Difficulty  *field.Choice[string]
	MaxPlayers  *field.Int
	SpawnRate   *field.Float
	PVPEnabled  *field.Bool
	MOTD        *field.String
	BannedItems *field.List[string]
	TeamSizes   *field.Map[string, int64]
	Advanced    *AdvancedSection

	// LocalNote never syncs; each installation keeps its own
	LocalNote string
}

// AdvancedSection holds the tuning knobs most operators never touch
type AdvancedSection struct {
	TickBudget  *field.Int
	VerboseLogs *field.Bool
}

// NewGameplayConfig creates the demo config at its defaults
func NewGameplayConfig() *GameplayConfig {
	return &GameplayConfig{
		Base:        config.NewBase(config.NewIdentifier("demo", "gameplay"), 1),
		Difficulty:  field.NewStringChoice("normal", "peaceful", "easy", "normal", "hard"),
		MaxPlayers:  field.NewInt(20, 1, 100),
		SpawnRate:   field.NewFloat(1.0, 0.0, 10.0),
		PVPEnabled:  field.NewBool(true),
		MOTD:        field.NewString("welcome"),
		BannedItems: field.NewList[string](nil, field.NewString("")),
		TeamSizes: field.NewMap(map[string]int64{"red": 5, "blue": 5},
			field.NewString(""), field.NewInt(0, 0, 64)),
		Advanced: &AdvancedSection{
			TickBudget:  field.NewInt(50, 10, 200),
			VerboseLogs: field.NewBool(false),
		},
		LocalNote: "",
	}
}

// SchemaFields implements schema.Walkable
func (c *GameplayConfig) SchemaFields() []schema.Descriptor {
	return []schema.Descriptor{
		{Name: "difficulty", Get: func() any { return c.Difficulty },
			Meta: schema.FieldMeta{Comment: "Game difficulty preset"}},
		{Name: "maxPlayers", Get: func() any { return c.MaxPlayers },
			Meta: schema.FieldMeta{Comment: "Maximum concurrent players", RequiresRestart: true}},
		{Name: "spawnRate", Get: func() any { return c.SpawnRate },
			Meta: schema.FieldMeta{Comment: "Mob spawn rate multiplier"}},
		{Name: "pvpEnabled", Get: func() any { return c.PVPEnabled },
			Meta: schema.FieldMeta{Comment: "Allow player versus player combat"}},
		{Name: "motd", Get: func() any { return c.MOTD },
			Meta: schema.FieldMeta{Comment: "Message of the day shown at join"}},
		{Name: "bannedItems", Get: func() any { return c.BannedItems },
			Meta: schema.FieldMeta{Comment: "Item ids removed from play"}},
		{Name: "teamSizes", Get: func() any { return c.TeamSizes },
			Meta: schema.FieldMeta{Comment: "Player cap per team"}},
		{Name: "advanced", Get: func() any { return c.Advanced }},
		{Name: "localNote", Get: func() any { return c.LocalNote },
			Set: func(v any) error {
				s, ok := v.(string)
				if !ok {
					return fmt.Errorf("localNote wants a string, got %T", v)
				}
				c.LocalNote = s
				return nil
			},
			Meta: schema.FieldMeta{Comment: "Installation-local note, never synced", NonSync: true}},
	}
}

// SchemaFields implements schema.Walkable
func (a *AdvancedSection) SchemaFields() []schema.Descriptor {
	return []schema.Descriptor{
		{Name: "tickBudget", Get: func() any { return a.TickBudget },
			Meta: schema.FieldMeta{Comment: "Milliseconds of work allowed per tick"}},
		{Name: "verboseLogs", Get: func() any { return a.VerboseLogs }},
	}
}
