package clone

import (
	"fmt"
	"math"
)

// Columns names the well-known template columns the generator reads or
// rewrites. Comment, Subclass, Quality, and Classification are optional.
type Columns struct {
	ID             string
	Classification string
	Slot           string
	Class          string
	Subclass       string
	Quality        string
	Name           string
	Description    string
	Comment        string
}

// Config is the full set of generation parameters. It is passed explicitly
// to New; nothing is read from package state.
type Config struct {
	Tier1Start int64
	Tier2Start int64
	// RangeEnd is the inclusive upper bound of the managed id span.
	RangeEnd int64

	Tier1Levels    int
	Tier2Levels    int
	LevelIncrement float64

	// Tier2Threshold promotes unlisted bases whose classification value is
	// at or above it.
	Tier2Threshold int64

	// ExcludedSlots and ExcludedClasses make a base ineligible. Slots at or
	// below zero are always excluded.
	ExcludedSlots   []int64
	ExcludedClasses []int64

	Columns Columns

	DescriptionMaxLen int

	ScaledIntColumns   []string
	ScaledIntPrefixes  []string
	ScaledFloatColumns []string
	FloatPrecision     int

	// ExtractColumns is the projection appended to the external extract.
	ExtractColumns []string
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Tier1Start:     2_000_000,
		Tier2Start:     2_500_000,
		RangeEnd:       3_000_000,
		Tier1Levels:    6,
		Tier2Levels:    15,
		LevelIncrement: 0.03,
		Tier2Threshold: 213,

		ExcludedSlots:   []int64{0, 18},
		ExcludedClasses: []int64{1},

		Columns: Columns{
			ID:             "entry",
			Classification: "ItemLevel",
			Slot:           "InventoryType",
			Class:          "class",
			Subclass:       "subclass",
			Quality:        "Quality",
			Name:           "name",
			Description:    "description",
			Comment:        "comment",
		},

		DescriptionMaxLen: 255,

		ScaledIntColumns: []string{
			"ItemLevel", "BuyPrice", "SellPrice", "armor", "holy_res", "fire_res",
			"nature_res", "frost_res", "shadow_res", "arcane_res", "block",
			"MaxDurability", "ScalingStatValue", "minMoneyLoot", "maxMoneyLoot",
		},
		ScaledIntPrefixes:  []string{"stat_value"},
		ScaledFloatColumns: []string{"dmg_min1", "dmg_max1", "dmg_min2", "dmg_max2", "ArmorDamageModifier"},
		FloatPrecision:     6,

		ExtractColumns: []string{
			"entry", "class", "subclass", "SoundOverrideSubclass",
			"Material", "displayid", "InventoryType", "sheath",
		},
	}
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("clone: invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the structural constraints the id ranges and level counts
// depend on.
func (c Config) Validate() error {
	switch {
	case c.Tier1Levels < 1:
		return &ConfigError{Field: "Tier1Levels", Reason: fmt.Sprintf("must be >= 1, got %d", c.Tier1Levels)}
	case c.Tier2Levels <= c.Tier1Levels:
		return &ConfigError{Field: "Tier2Levels", Reason: fmt.Sprintf("must exceed Tier1Levels (%d), got %d", c.Tier1Levels, c.Tier2Levels)}
	case c.LevelIncrement <= 0:
		return &ConfigError{Field: "LevelIncrement", Reason: fmt.Sprintf("must be > 0, got %g", c.LevelIncrement)}
	case c.Tier1Start < 1:
		return &ConfigError{Field: "Tier1Start", Reason: fmt.Sprintf("must be >= 1, got %d", c.Tier1Start)}
	case c.Tier2Start <= c.Tier1Start:
		return &ConfigError{Field: "Tier2Start", Reason: fmt.Sprintf("must exceed Tier1Start (%d), got %d", c.Tier1Start, c.Tier2Start)}
	case c.RangeEnd < c.Tier2Start:
		return &ConfigError{Field: "RangeEnd", Reason: fmt.Sprintf("must be >= Tier2Start (%d), got %d", c.Tier2Start, c.RangeEnd)}
	case c.RangeEnd > MaxItemID:
		return &ConfigError{Field: "RangeEnd", Reason: fmt.Sprintf("must be <= %d, got %d", int64(MaxItemID), c.RangeEnd)}
	case c.DescriptionMaxLen < 1:
		return &ConfigError{Field: "DescriptionMaxLen", Reason: fmt.Sprintf("must be >= 1, got %d", c.DescriptionMaxLen)}
	case c.FloatPrecision < 0 || c.FloatPrecision > 12:
		return &ConfigError{Field: "FloatPrecision", Reason: fmt.Sprintf("must be within 0..12, got %d", c.FloatPrecision)}
	case c.Columns.ID == "":
		return &ConfigError{Field: "Columns.ID", Reason: "must be set"}
	case c.Columns.Slot == "":
		return &ConfigError{Field: "Columns.Slot", Reason: "must be set"}
	case c.Columns.Class == "":
		return &ConfigError{Field: "Columns.Class", Reason: "must be set"}
	case c.Columns.Description == "":
		return &ConfigError{Field: "Columns.Description", Reason: "must be set"}
	}
	return nil
}

// MaxItemID is the largest value the template id column (INT UNSIGNED) holds.
const MaxItemID = math.MaxUint32

// Levels returns the number of upgrade levels for tier t.
func (c Config) Levels(t int) int {
	if t == 2 {
		return c.Tier2Levels
	}
	return c.Tier1Levels
}

// Start returns the first derived id for tier t.
func (c Config) Start(t int) int64 {
	if t == 2 {
		return c.Tier2Start
	}
	return c.Tier1Start
}

// Limit returns the first id tier t may not use.
func (c Config) Limit(t int) int64 {
	if t == 2 {
		return c.RangeEnd + 1
	}
	return c.Tier2Start
}

// Span returns the inclusive managed id range.
func (c Config) Span() (lo, hi int64) { return c.Tier1Start, c.RangeEnd }

// Multiplier returns 1 + increment*level.
func (c Config) Multiplier(level int) float64 {
	return 1 + c.LevelIncrement*float64(level)
}
