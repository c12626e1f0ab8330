package clone

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"clonegen/pkg/records"
)

const ellipsis = "..."

// Describe annotates a base description with the upgrade level and base id.
// Lengths are measured in characters. When the result would exceed maxLen
// the base text is cut and ends in "..." so the total is exactly maxLen.
func Describe(base string, baseID int64, level, maxLen int) string {
	suffix := fmt.Sprintf(" [Upgrade L%d • Base %d]", level, baseID)
	if base == "" {
		return strings.TrimSpace(suffix)
	}
	baseLen, suffixLen := utf8.RuneCountInString(base), utf8.RuneCountInString(suffix)
	if baseLen+suffixLen <= maxLen {
		return base + suffix
	}
	allowed := maxLen - suffixLen - len(ellipsis)
	if allowed <= 0 {
		return strings.TrimSpace(suffix)
	}
	return string([]rune(base)[:allowed]) + ellipsis + suffix
}

// Metadata is one row of the upgrade-template table describing a clone.
type Metadata struct {
	ItemID          int64
	TierID          int
	ArmorType       string
	ItemSlot        int64
	Rarity          int64
	SourceType      string
	SourceID        int64
	BaseStatValue   int64
	CosmeticVariant int
	IsActive        int
	UpgradeCategory string
	Season          int
}

// MetadataColumns is the column order of Metadata.Row.
var MetadataColumns = []string{
	"item_id", "tier_id", "armor_type", "item_slot", "rarity", "source_type", "source_id",
	"base_stat_value", "cosmetic_variant", "is_active", "upgrade_category", "season",
}

// Row renders m in MetadataColumns order.
func (m Metadata) Row() records.Row {
	return records.Row{
		records.IntValue(m.ItemID),
		records.IntValue(int64(m.TierID)),
		records.StringValue(m.ArmorType),
		records.IntValue(m.ItemSlot),
		records.IntValue(m.Rarity),
		records.StringValue(m.SourceType),
		records.IntValue(m.SourceID),
		records.IntValue(m.BaseStatValue),
		records.IntValue(int64(m.CosmeticVariant)),
		records.IntValue(int64(m.IsActive)),
		records.StringValue(m.UpgradeCategory),
		records.IntValue(int64(m.Season)),
	}
}

func newMetadata(base records.Row, l layout, s Spec) Metadata {
	at := func(i int) int64 {
		if i < 0 {
			return 0
		}
		return base[i].AsInt(0)
	}
	var stat int64
	if ilvl := at(l.level); ilvl > 0 {
		stat = int64(math.RoundToEven(float64(ilvl) * s.Multiplier))
	}
	return Metadata{
		ItemID:          s.DerivedID,
		TierID:          s.Tier,
		ArmorType:       ArmorType(at(l.class), at(l.sub)),
		ItemSlot:        at(l.slot),
		Rarity:          at(l.quality),
		SourceType:      "clone",
		SourceID:        s.BaseID,
		BaseStatValue:   stat,
		CosmeticVariant: 0,
		IsActive:        1,
		UpgradeCategory: UpgradeCategory(s.Tier),
		Season:          1,
	}
}

// ArmorType classifies an item by class and subclass.
func ArmorType(class, subclass int64) string {
	switch class {
	case 4:
		switch subclass {
		case 1:
			return "cloth"
		case 2:
			return "leather"
		case 3:
			return "mail"
		case 4:
			return "plate"
		case 6:
			return "shield"
		}
		return "cosmetic"
	case 2:
		return "weapon"
	case 3:
		return "projectile"
	case 0:
		return "consumable"
	case 5:
		return "gems"
	case 11:
		return "quiver"
	case 15:
		return "mount"
	}
	return "misc"
}

// UpgradeCategory names the category for tier t.
func UpgradeCategory(t int) string {
	if t == 1 {
		return "common"
	}
	return "uncommon"
}
