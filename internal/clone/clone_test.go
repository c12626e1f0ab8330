package clone

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"clonegen/internal/schema"
	"clonegen/internal/template"
	"clonegen/internal/tier"
	"clonegen/pkg/records"
)

var testColumns = []string{
	"entry", "class", "subclass", "SoundOverrideSubclass", "name", "displayid", "Quality",
	"Material", "InventoryType", "sheath", "ItemLevel", "stat_value1", "dmg_min1",
	"description", "comment",
}

type item struct {
	id      int64
	class   int64
	sub     int64
	slot    int64
	ilvl    int64
	stat    int64
	dmg     float64
	desc    string
	comment string
}

func (it item) row() records.Row {
	return records.Row{
		records.IntValue(it.id),
		records.IntValue(it.class),
		records.IntValue(it.sub),
		records.IntValue(-1),
		records.StringValue(fmt.Sprintf("Item %d", it.id)),
		records.IntValue(1234),
		records.IntValue(3),
		records.IntValue(1),
		records.IntValue(it.slot),
		records.IntValue(0),
		records.IntValue(it.ilvl),
		records.IntValue(it.stat),
		records.FloatValue(it.dmg),
		records.StringValue(it.desc),
		records.StringValue(it.comment),
	}
}

func newStore(t *testing.T, items ...item) *template.Store {
	t.Helper()
	def, err := schema.FromColumns("item_template", testColumns)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	rows := make([]records.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, it.row())
	}
	s, err := template.FromRows(def, rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return s
}

func list(tierID int, ids ...int64) *tier.List {
	return &tier.List{Tier: tierID, IDs: ids}
}

func newGenerator(t *testing.T, mutate func(*Config)) *Generator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestGenerate_EndToEndTierOne(t *testing.T) {
	t.Parallel()

	store := newStore(t, item{id: 1000, class: 4, sub: 2, slot: 5, ilvl: 200, stat: 10, dmg: 2.5, desc: "Sturdy"})
	res, err := newGenerator(t, nil).Generate(store, list(1, 1000), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(res.Specs) != 6 {
		t.Fatalf("got %d specs, want 6", len(res.Specs))
	}
	wantMult := []float64{1.03, 1.06, 1.09, 1.12, 1.15, 1.18}
	for i, s := range res.Specs {
		if s.BaseID != 1000 || s.Tier != 1 || s.Level != i+1 {
			t.Fatalf("spec[%d] = %+v", i, s)
		}
		if want := int64(2_000_000 + i); s.DerivedID != want {
			t.Fatalf("spec[%d].DerivedID = %d, want %d", i, s.DerivedID, want)
		}
		if s.Multiplier != wantMult[i] {
			t.Fatalf("spec[%d].Multiplier = %v, want %v", i, s.Multiplier, wantMult[i])
		}
	}

	sum := res.Summary[1]
	if *sum != (TierSummary{Bases: 1, Clones: 6}) {
		t.Fatalf("tier 1 summary = %+v", *sum)
	}
	if *res.Summary[2] != (TierSummary{}) {
		t.Fatalf("tier 2 summary = %+v, want zero", *res.Summary[2])
	}
	if res.NextID[1] != 2_000_006 || res.NextID[2] != 2_500_000 {
		t.Fatalf("NextID = %v", res.NextID)
	}

	first := res.Rows[0]
	if first[0] != records.IntValue(2_000_000) {
		t.Fatalf("derived id = %v", first[0])
	}
	if first[4].S != "Item 1000" {
		t.Fatalf("name = %q, want copied verbatim", first[4].S)
	}
	if got, want := first[13].S, "Sturdy [Upgrade L1 • Base 1000]"; got != want {
		t.Fatalf("description = %q, want %q", got, want)
	}
	if got, want := first[14].S, "Upgrade clone of 1000 (tier 1 level 1)"; got != want {
		t.Fatalf("comment = %q, want %q", got, want)
	}

	wantExtract := []string{"2000000", "4", "2", "-1", "1", "1234", "5", "0"}
	if diff := cmp.Diff(wantExtract, res.ExtractRows[0]); diff != "" {
		t.Fatalf("extract projection mismatch (-want +got):\n%s", diff)
	}
	if len(res.Metadata) != 6 || res.Metadata[0].ArmorType != "leather" || res.Metadata[0].BaseStatValue != 206 {
		t.Fatalf("metadata[0] = %+v", res.Metadata[0])
	}
}

func TestGenerate_ScalingLaw(t *testing.T) {
	t.Parallel()

	store := newStore(t, item{id: 10, class: 2, slot: 13, ilvl: 100, stat: 10, dmg: 2.5})
	res, err := newGenerator(t, nil).Generate(store, list(1, 10), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lvl2 := res.Rows[1]
	if lvl2[10] != records.IntValue(106) {
		t.Fatalf("ItemLevel at level 2 = %v, want 106", lvl2[10])
	}
	// 10 * 1.06 = 10.6
	if lvl2[11] != records.IntValue(11) {
		t.Fatalf("stat_value1 at level 2 = %v, want 11", lvl2[11])
	}
	if lvl2[12] != records.FloatValue(2.65) {
		t.Fatalf("dmg_min1 at level 2 = %v, want 2.65", lvl2[12])
	}
	// Unscaled columns are copied.
	if lvl2[5] != records.IntValue(1234) {
		t.Fatalf("displayid = %v, want 1234", lvl2[5])
	}
}

func TestScaleHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  records.Value
		want records.Value
	}{
		{"int rounds product", ScaleInt(records.IntValue(25), 1.1), records.IntValue(28)},
		{"int half to even", ScaleInt(records.FloatValue(2.5), 1), records.IntValue(2)},
		{"int from float", ScaleInt(records.FloatValue(3.5), 1), records.IntValue(4)},
		{"int null", ScaleInt(records.NullValue(), 2), records.NullValue()},
		{"int string", ScaleInt(records.StringValue("x"), 2), records.StringValue("x")},
		{"float precision", ScaleFloat(records.FloatValue(1.0000004), 1, 6), records.FloatValue(1)},
		{"float exact half up", ScaleFloat(records.FloatValue(2.5e-06), 1, 6), records.FloatValue(3e-06)},
		{"float below half", ScaleFloat(records.FloatValue(1.0000015), 1, 6), records.FloatValue(1.000001)},
		{"float exact decimal", ScaleFloat(records.FloatValue(1.25e-05), 1, 6), records.FloatValue(1.3e-05)},
		{"float two places", ScaleFloat(records.FloatValue(2.675), 1, 2), records.FloatValue(2.67)},
		{"float from int", ScaleFloat(records.IntValue(3), 1.5, 6), records.FloatValue(4.5)},
		{"float null", ScaleFloat(records.NullValue(), 2, 6), records.NullValue()},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestGenerate_EligibilityExclusion(t *testing.T) {
	t.Parallel()

	store := newStore(t,
		item{id: 1, class: 4, slot: 0},
		item{id: 2, class: 4, slot: 18},
		item{id: 3, class: 4, slot: -3},
		item{id: 4, class: 1, slot: 18},
		item{id: 5, class: 1, slot: 1},
		item{id: 6, class: 4, slot: 1, ilvl: 250},
		item{id: 7, class: 1, slot: 1},
	)
	res, err := newGenerator(t, nil).Generate(store, list(1, 1, 2, 3, 4, 5, 6), list(2, 7))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if *res.Summary[1] != (TierSummary{Skipped: 5}) {
		t.Fatalf("tier 1 summary = %+v", *res.Summary[1])
	}
	// id 6 is promoted by its item level, id 7 is skipped under tier 2.
	if *res.Summary[2] != (TierSummary{Bases: 1, Clones: 15, Skipped: 1}) {
		t.Fatalf("tier 2 summary = %+v", *res.Summary[2])
	}
	for _, s := range res.Specs {
		if s.BaseID != 6 {
			t.Fatalf("ineligible base %d produced a clone", s.BaseID)
		}
	}
	skipped := 0
	for _, w := range res.Warnings {
		if w.Reason == ReasonSkipped {
			skipped++
		}
	}
	if skipped != 6 {
		t.Fatalf("got %d skip warnings, want 6", skipped)
	}
}

func TestGenerate_MissingBaseTolerance(t *testing.T) {
	t.Parallel()

	store := newStore(t, item{id: 50, class: 4, slot: 5, ilvl: 10})
	res, err := newGenerator(t, nil).Generate(store, list(1, 40, 50), list(2, 45))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Summary[1].Missing != 1 || res.Summary[2].Missing != 1 {
		t.Fatalf("missing = %d/%d, want 1/1", res.Summary[1].Missing, res.Summary[2].Missing)
	}
	if res.Summary[1].Clones != 6 {
		t.Fatalf("tier 1 clones = %d, want 6", res.Summary[1].Clones)
	}
	want := []string{
		"Base item 40 not found in item_template (tier 1)",
		"Base item 45 not found in item_template (tier 2)",
	}
	var got []string
	for _, w := range res.Warnings {
		got = append(got, w.String())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_OverlapPrefersTierTwo(t *testing.T) {
	t.Parallel()

	store := newStore(t, item{id: 9, class: 4, slot: 5, ilvl: 10})
	res, err := newGenerator(t, nil).Generate(store, list(1, 9), list(2, 9))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Summary[2].Clones != 15 || res.Summary[1].Clones != 0 {
		t.Fatalf("summary = %+v / %+v", *res.Summary[1], *res.Summary[2])
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Reason != ReasonOverlap {
		t.Fatalf("warnings = %v, want one overlap warning", res.Warnings)
	}
}

func TestGenerate_RangesAreDisjoint(t *testing.T) {
	t.Parallel()

	var (
		items []item
		t1    []int64
		t2    []int64
	)
	for id := int64(100); id < 140; id++ {
		ilvl := int64(50)
		if id%3 == 0 {
			ilvl = 220
		}
		items = append(items, item{id: id, class: 4, slot: 5, ilvl: ilvl})
		if id%5 == 0 {
			t2 = append(t2, id)
		} else {
			t1 = append(t1, id)
		}
	}
	// Ids at or above the first tier start are never candidates.
	t1 = append(t1, 2_000_001)

	g := newGenerator(t, nil)
	cfg := g.Config()
	res, err := g.Generate(newStore(t, items...), list(1, t1...), list(2, t2...))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	seen := make(map[int64]bool)
	for _, s := range res.Specs {
		if seen[s.DerivedID] {
			t.Fatalf("derived id %d reused", s.DerivedID)
		}
		seen[s.DerivedID] = true
		lo, limit := cfg.Start(s.Tier), cfg.Limit(s.Tier)
		if s.DerivedID < lo || s.DerivedID >= limit {
			t.Fatalf("tier %d id %d outside [%d,%d)", s.Tier, s.DerivedID, lo, limit)
		}
		if s.BaseID >= cfg.Tier1Start {
			t.Fatalf("base %d inside managed span", s.BaseID)
		}
	}
	// Ascending base id, then ascending level, per tier.
	prev := map[int]Spec{}
	for _, s := range res.Specs {
		if p, ok := prev[s.Tier]; ok && s.DerivedID != p.DerivedID+1 {
			t.Fatalf("tier %d ids not contiguous: %d after %d", s.Tier, s.DerivedID, p.DerivedID)
		}
		prev[s.Tier] = s
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	store := newStore(t,
		item{id: 3, class: 4, slot: 5, ilvl: 100, dmg: 1.25},
		item{id: 1, class: 2, slot: 13, ilvl: 230, dmg: 7},
	)
	g := newGenerator(t, nil)
	a, err := g.Generate(store, list(1, 3, 1), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := g.Generate(store, list(1, 1, 3), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff(a.Specs, b.Specs); diff != "" {
		t.Fatalf("specs differ (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Rows, b.Rows); diff != "" {
		t.Fatalf("rows differ (-a +b):\n%s", diff)
	}
}

func TestGenerate_RangeExhausted(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(c *Config) {
		c.Tier1Start, c.Tier2Start, c.RangeEnd = 1000, 1010, 2000
	})
	store := newStore(t, item{id: 1, class: 4, slot: 5}, item{id: 2, class: 4, slot: 5})
	res, err := g.Generate(store, list(1, 1, 2), nil)
	if !errors.Is(err, ErrRangeExhausted) {
		t.Fatalf("err = %v, want ErrRangeExhausted", err)
	}
	if res == nil {
		t.Fatal("got nil result, want partial result")
	}
	if got, want := *res.Summary[1], (TierSummary{Bases: 2, Clones: 10}); got != want {
		t.Fatalf("got summary %+v, want %+v", got, want)
	}
	if got, want := res.NextID[1], int64(1010); got != want {
		t.Fatalf("got next id %d, want %d", got, want)
	}
}

func TestGenerate_HighTierStart(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(c *Config) {
		c.Tier1Start, c.Tier2Start, c.RangeEnd = 4_000_000_000, 4_100_000_000, MaxItemID
	})
	store := newStore(t,
		item{id: 1, class: 4, slot: 5, ilvl: 10},
		item{id: 3_999_999_999, class: 4, slot: 5, ilvl: 10},
	)
	res, err := g.Generate(store, list(1, 3_999_999_999, 1, 1, 4_000_000_007), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := *res.Summary[1], (TierSummary{Bases: 2, Clones: 12}); got != want {
		t.Fatalf("got summary %+v, want %+v", got, want)
	}
	if got, want := res.Specs[0].DerivedID, int64(4_000_000_000); got != want {
		t.Fatalf("got first derived id %d, want %d", got, want)
	}
}

func TestNewIDSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		floor  int64
		ids    []int64
		sparse bool
	}{
		{"small ids use bitmap", 2_000_000, []int64{5, 1_999_999}, false},
		{"large ids use map", 4_000_000_000, []int64{5, 3_999_999_999}, true},
		{"ids above floor ignored", 4_000_000_000, []int64{5, 4_100_000_000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newIDSet(tt.floor, list(1, tt.ids...))
			if _, ok := s.(sparseIDs); ok != tt.sparse {
				t.Fatalf("got sparse %v, want %v", ok, tt.sparse)
			}
			if !s.Add(5) || s.Add(5) {
				t.Fatal("Add(5) twice: want true then false")
			}
		})
	}
}

func TestGenerate_FatalInputs(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, nil)
	store := newStore(t, item{id: 1, class: 4, slot: 5})

	if _, err := g.Generate(store, nil, nil); !errors.Is(err, ErrNoTierLists) {
		t.Fatalf("err = %v, want ErrNoTierLists", err)
	}
	if _, err := g.Generate(nil, list(1, 1), nil); err == nil {
		t.Fatalf("expected error for nil store")
	}

	def, _ := schema.FromColumns("item_template", []string{"entry", "class", "InventoryType"})
	bare, _ := template.FromRows(def, nil)
	if _, err := g.Generate(bare, list(1, 1), nil); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"tier2 levels not above tier1", func(c *Config) { c.Tier2Levels = c.Tier1Levels }, "Tier2Levels"},
		{"zero tier1 levels", func(c *Config) { c.Tier1Levels = 0 }, "Tier1Levels"},
		{"non-positive increment", func(c *Config) { c.LevelIncrement = 0 }, "LevelIncrement"},
		{"starts not ascending", func(c *Config) { c.Tier2Start = c.Tier1Start }, "Tier2Start"},
		{"range end below tier2", func(c *Config) { c.RangeEnd = c.Tier2Start - 1 }, "RangeEnd"},
		{"range end beyond id column", func(c *Config) { c.RangeEnd = 1 << 42 }, "RangeEnd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Fatalf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	// Suffix " [Upgrade L10 • Base 12345678]" is 30 characters.
	long := strings.Repeat("x", 300)
	got := Describe(long, 12345678, 10, 255)
	if n := utf8.RuneCountInString(got); n != 255 {
		t.Fatalf("length = %d, want 255", n)
	}
	want := strings.Repeat("x", 222) + "..." + " [Upgrade L10 • Base 12345678]"
	if got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}

	tests := []struct {
		name  string
		base  string
		level int
		max   int
		want  string
	}{
		{"fits", "Sharp", 3, 255, "Sharp [Upgrade L3 • Base 7]"},
		{"empty base", "", 1, 255, "[Upgrade L1 • Base 7]"},
		{"no room", "abc", 1, 10, "[Upgrade L1 • Base 7]"},
		{"multibyte counted as characters", "ééééé", 1, 26, "é... [Upgrade L1 • Base 7]"},
	}
	for _, tt := range tests {
		if got := Describe(tt.base, 7, tt.level, tt.max); got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGenerate_CommentKeepsBaseText(t *testing.T) {
	t.Parallel()

	store := newStore(t, item{id: 4, class: 4, slot: 5, comment: "quest reward"})
	res, err := newGenerator(t, nil).Generate(store, nil, list(2, 4))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := res.Rows[14][14].S, "quest reward | Upgrade clone of 4 (tier 2 level 15)"; got != want {
		t.Fatalf("comment = %q, want %q", got, want)
	}
}

func TestArmorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class, sub int64
		want       string
	}{
		{4, 1, "cloth"}, {4, 2, "leather"}, {4, 3, "mail"}, {4, 4, "plate"},
		{4, 6, "shield"}, {4, 0, "cosmetic"}, {2, 7, "weapon"}, {3, 0, "projectile"},
		{0, 0, "consumable"}, {5, 0, "gems"}, {11, 2, "quiver"}, {15, 0, "mount"},
		{12, 0, "misc"},
	}
	for _, tt := range tests {
		if got := ArmorType(tt.class, tt.sub); got != tt.want {
			t.Fatalf("ArmorType(%d,%d) = %q, want %q", tt.class, tt.sub, got, tt.want)
		}
	}
}
