// Package clone derives upgrade clones from base template rows.
//
// For every listed base id the generator decides a tier, checks eligibility,
// and emits one derived row per upgrade level with a fresh id taken from the
// tier's counter. Numeric stat columns are scaled by 1 + increment*level,
// the description is annotated, and a mapping spec records the provenance.
package clone

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"clonegen/internal/bitmap"
	"clonegen/internal/schema"
	"clonegen/internal/template"
	"clonegen/internal/tier"
	"clonegen/pkg/records"
)

var (
	// ErrNoTierLists is returned when neither tier list was supplied.
	ErrNoTierLists = errors.New("clone: no tier lists supplied")
	// ErrRangeExhausted is returned when a tier counter would leave its id range.
	ErrRangeExhausted = errors.New("clone: derived id range exhausted")
	// ErrMissingColumn is returned when a required column is absent from the schema.
	ErrMissingColumn = errors.New("clone: required column missing from schema")
)

// Spec is the provenance of one derived row.
type Spec struct {
	BaseID     int64
	Tier       int
	Level      int
	DerivedID  int64
	Multiplier float64
}

// Row renders s as a mapping table row
// (base_item_id, tier_id, upgrade_level, clone_item_id, stat_multiplier).
func (s Spec) Row() records.Row {
	return records.Row{
		records.IntValue(s.BaseID),
		records.IntValue(int64(s.Tier)),
		records.IntValue(int64(s.Level)),
		records.IntValue(s.DerivedID),
		records.FloatValue(s.Multiplier),
	}
}

// TierSummary counts outcomes for one tier.
type TierSummary struct {
	Bases   int
	Clones  int
	Missing int
	Skipped int
}

// Warning reasons.
const (
	ReasonMissing = "missing"
	ReasonSkipped = "skipped"
	ReasonOverlap = "overlap"
)

// Warning is a recoverable condition met during generation.
type Warning struct {
	Reason  string
	BaseID  int64
	Tier    int
	Message string
}

func (w Warning) String() string { return w.Message }

// Result is everything one generation pass produced.
type Result struct {
	Definition *schema.Definition
	// Rows are the derived rows, aligned to Definition, in generation order.
	Rows []records.Row
	// Specs parallels Rows.
	Specs    []Spec
	Metadata []Metadata
	// ExtractColumns names the projection in ExtractRows.
	ExtractColumns []string
	ExtractRows    [][]string
	Warnings       []Warning
	// Summary is keyed by tier (1 and 2).
	Summary map[int]*TierSummary
	// NextID holds the final counter per tier.
	NextID map[int]int64
	// SpanLo and SpanHi bound every id the generator manages.
	SpanLo, SpanHi int64
}

// Generator is a validated configuration bound to no particular input.
type Generator struct {
	cfg      Config
	slots    map[int64]struct{}
	classes  map[int64]struct{}
	intCols  map[string]struct{}
	fltCols  map[string]struct{}
	prefixes []string
}

// New validates cfg and returns a Generator.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:      cfg,
		slots:    toSet(cfg.ExcludedSlots),
		classes:  toSet(cfg.ExcludedClasses),
		intCols:  make(map[string]struct{}, len(cfg.ScaledIntColumns)),
		fltCols:  make(map[string]struct{}, len(cfg.ScaledFloatColumns)),
		prefixes: append([]string(nil), cfg.ScaledIntPrefixes...),
	}
	for _, c := range cfg.ScaledIntColumns {
		g.intCols[c] = struct{}{}
	}
	for _, c := range cfg.ScaledFloatColumns {
		g.fltCols[c] = struct{}{}
	}
	return g, nil
}

// Config returns the generator's configuration.
func (g *Generator) Config() Config { return g.cfg }

// layout is the column positions resolved against one schema.
type layout struct {
	id, slot, class, desc int
	name, comment         int // -1 when absent
	level, sub, quality   int // -1 when absent
	ints, floats          []int
	extract               []int
}

func (g *Generator) bind(def *schema.Definition) (layout, error) {
	c := g.cfg.Columns
	req := func(name string) (int, error) {
		i, ok := def.Index(name)
		if !ok {
			return -1, fmt.Errorf("%w: %s.%s", ErrMissingColumn, def.Table(), name)
		}
		return i, nil
	}
	opt := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := def.Index(name); ok {
			return i
		}
		return -1
	}

	var (
		l   layout
		err error
	)
	if l.id, err = req(c.ID); err != nil {
		return l, err
	}
	if l.id != 0 {
		return l, fmt.Errorf("%w: id column %s must be first, found at position %d", ErrMissingColumn, c.ID, l.id+1)
	}
	if l.slot, err = req(c.Slot); err != nil {
		return l, err
	}
	if l.class, err = req(c.Class); err != nil {
		return l, err
	}
	if l.desc, err = req(c.Description); err != nil {
		return l, err
	}
	l.name = opt(c.Name)
	l.comment = opt(c.Comment)
	l.level = opt(c.Classification)
	l.sub = opt(c.Subclass)
	l.quality = opt(c.Quality)

	for i := 0; i < def.Len(); i++ {
		col := def.Column(i)
		if _, ok := g.fltCols[col]; ok {
			l.floats = append(l.floats, i)
			continue
		}
		if _, ok := g.intCols[col]; ok || g.hasPrefix(col) {
			l.ints = append(l.ints, i)
		}
	}
	for _, col := range g.cfg.ExtractColumns {
		i, err := req(col)
		if err != nil {
			return l, fmt.Errorf("extract projection: %w", err)
		}
		l.extract = append(l.extract, i)
	}
	return l, nil
}

func (g *Generator) hasPrefix(col string) bool {
	for _, p := range g.prefixes {
		if p != "" && strings.HasPrefix(col, p) {
			return true
		}
	}
	return false
}

// Generate runs one pass over the union of both tier lists. Either list may
// be nil, but not both. When a tier's id range runs out the partial result
// (counts and warnings so far) is returned together with ErrRangeExhausted;
// any other error returns no result.
func (g *Generator) Generate(store *template.Store, t1, t2 *tier.List) (*Result, error) {
	if store == nil || store.Definition() == nil {
		return nil, errors.New("clone: nil template store")
	}
	if t1 == nil && t2 == nil {
		return nil, ErrNoTierLists
	}
	def := store.Definition()
	l, err := g.bind(def)
	if err != nil {
		return nil, err
	}

	cfg := g.cfg
	floor := cfg.Tier1Start
	if cfg.Tier2Start < floor {
		floor = cfg.Tier2Start
	}

	in1, in2 := t1.Set(), t2.Set()
	seen := newIDSet(floor, t1, t2)
	var candidates []int64
	for _, l := range []*tier.List{t1, t2} {
		if l == nil {
			continue
		}
		for _, id := range l.IDs {
			if id < 0 || id >= floor {
				continue
			}
			if seen.Add(id) {
				candidates = append(candidates, id)
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	lo, hi := cfg.Span()
	res := &Result{
		Definition:     def,
		ExtractColumns: append([]string(nil), cfg.ExtractColumns...),
		Summary:        map[int]*TierSummary{1: {}, 2: {}},
		NextID:         map[int]int64{1: cfg.Tier1Start, 2: cfg.Tier2Start},
		SpanLo:         lo,
		SpanHi:         hi,
	}

	for _, id := range candidates {
		_, listed2 := in2[id]
		if _, listed1 := in1[id]; listed1 && listed2 {
			res.warn(ReasonOverlap, id, 2, fmt.Sprintf("Base item %d is listed for both tiers; tier 2 applies", id))
		}

		base, ok := store.Get(id)
		if !ok {
			t := 1
			if listed2 {
				t = 2
			}
			res.Summary[t].Missing++
			res.warn(ReasonMissing, id, t, fmt.Sprintf("Base item %d not found in %s (tier %d)", id, def.Table(), t))
			continue
		}

		t := 1
		if listed2 || (l.level >= 0 && base[l.level].AsInt(0) >= cfg.Tier2Threshold) {
			t = 2
		}

		if reason, skip := g.ineligible(base, l); skip {
			res.Summary[t].Skipped++
			res.warn(ReasonSkipped, id, t, fmt.Sprintf("Skipping base item %d (%s) %s", id, textAt(base, l.name), reason))
			continue
		}

		res.Summary[t].Bases++
		baseDesc := base[l.desc].Text()
		baseComment := ""
		if l.comment >= 0 {
			baseComment = base[l.comment].Text()
		}

		for level := 1; level <= cfg.Levels(t); level++ {
			derivedID := res.NextID[t]
			if derivedID >= cfg.Limit(t) {
				return res, fmt.Errorf("%w: tier %d base %d level %d would use id %d (limit %d)",
					ErrRangeExhausted, t, id, level, derivedID, cfg.Limit(t)-1)
			}
			res.NextID[t] = derivedID + 1

			m := cfg.Multiplier(level)
			row := g.derive(base, l, id, t, level, derivedID, m, baseDesc, baseComment)
			spec := Spec{BaseID: id, Tier: t, Level: level, DerivedID: derivedID, Multiplier: roundTo(m, 6)}

			res.Rows = append(res.Rows, row)
			res.Specs = append(res.Specs, spec)
			res.Metadata = append(res.Metadata, newMetadata(base, l, spec))
			res.ExtractRows = append(res.ExtractRows, project(row, l.extract))
			res.Summary[t].Clones++
		}
	}
	return res, nil
}

func (r *Result) warn(reason string, id int64, t int, msg string) {
	r.Warnings = append(r.Warnings, Warning{Reason: reason, BaseID: id, Tier: t, Message: msg})
}

// ineligible reports why base cannot be cloned.
func (g *Generator) ineligible(base records.Row, l layout) (string, bool) {
	slot := base[l.slot].AsInt(0)
	if _, excluded := g.slots[slot]; excluded || slot <= 0 {
		return fmt.Sprintf("due to inventory type %d", slot), true
	}
	class := base[l.class].AsInt(0)
	if _, excluded := g.classes[class]; excluded {
		return fmt.Sprintf("because class %d is excluded", class), true
	}
	return "", false
}

func (g *Generator) derive(base records.Row, l layout, baseID int64, t, level int, derivedID int64, m float64, baseDesc, baseComment string) records.Row {
	row := base.Clone()
	row[l.id] = records.IntValue(derivedID)
	row[l.desc] = records.StringValue(Describe(baseDesc, baseID, level, g.cfg.DescriptionMaxLen))
	if l.comment >= 0 {
		note := fmt.Sprintf("Upgrade clone of %d (tier %d level %d)", baseID, t, level)
		if baseComment != "" {
			note = baseComment + " | " + note
		}
		row[l.comment] = records.StringValue(note)
	}
	for _, i := range l.ints {
		row[i] = ScaleInt(base[i], m)
	}
	for _, i := range l.floats {
		row[i] = ScaleFloat(base[i], m, g.cfg.FloatPrecision)
	}
	return row
}

// ScaleInt multiplies a numeric value by m and rounds half to even. Null and
// string values are returned unchanged.
func ScaleInt(v records.Value, m float64) records.Value {
	f, ok := v.Float64()
	if !ok {
		return v
	}
	return records.IntValue(int64(math.RoundToEven(f * m)))
}

// ScaleFloat multiplies a numeric value by m and rounds to prec decimals.
// Null and string values are returned unchanged.
func ScaleFloat(v records.Value, m float64, prec int) records.Value {
	f, ok := v.Float64()
	if !ok {
		return v
	}
	return records.FloatValue(roundTo(f*m, prec))
}

// roundTo rounds f to prec decimals using the exact decimal value of f, so
// 2.675 (stored as 2.67499...) rounds to 2.67.
func roundTo(f float64, prec int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', prec, 64), 64)
	if err != nil {
		return f
	}
	return r
}

func project(row records.Row, idx []int) []string {
	out := make([]string, len(idx))
	for i, pos := range idx {
		out[i] = row[pos].Text()
	}
	return out
}

func textAt(row records.Row, i int) string {
	if i < 0 {
		return ""
	}
	return row[i].Text()
}

// denseIDLimit bounds the id space tracked with a bitmap. Lists holding
// larger candidate ids are de-duplicated with a map instead.
const denseIDLimit = 1 << 24

type idSet interface {
	Add(id int64) bool
}

type sparseIDs map[int64]struct{}

func (s sparseIDs) Add(id int64) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// newIDSet returns a set for the candidate ids (those below floor) of lists,
// sized from the largest candidate rather than from floor.
func newIDSet(floor int64, lists ...*tier.List) idSet {
	maxID, n := int64(-1), 0
	for _, l := range lists {
		if l == nil {
			continue
		}
		n += len(l.IDs)
		for _, id := range l.IDs {
			if id < floor && id > maxID {
				maxID = id
			}
		}
	}
	if maxID < denseIDLimit {
		return bitmap.New(maxID + 1)
	}
	return make(sparseIDs, n)
}

func toSet(vals []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
