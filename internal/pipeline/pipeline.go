// Package pipeline runs one complete generation: it loads the inputs,
// derives the clones, renders the SQL script, synchronizes the extract, and
// writes every artifact.
//
// Inputs are loaded concurrently. Outputs are built fully in memory, staged
// as temporary files next to their targets, and renamed into place only once
// every one of them has been staged, so a failed run leaves the previous
// artifacts untouched.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"clonegen/internal/clone"
	"clonegen/internal/config"
	"clonegen/internal/datasource"
	"clonegen/internal/datasource/file"
	"clonegen/internal/extract"
	"clonegen/internal/metrics"
	"clonegen/internal/schema"
	"clonegen/internal/skiplog"
	"clonegen/internal/sqlgen"
	"clonegen/internal/storage"
	"clonegen/internal/template"
	"clonegen/internal/tier"
)

// Stage names used for metrics and verbose logs.
const (
	StageResolveSchema = "resolve_schema"
	StageLoadTemplates = "load_templates"
	StageLoadTiers     = "load_tiers"
	StageReadExtract   = "read_extract"
	StageGenerate      = "generate"
	StageRenderSQL     = "render_sql"
	StageSyncExtract   = "sync_extract"
	StageWriteOutputs  = "write_outputs"
)

// ErrInvalidConfig wraps the blocking issues found by config.Validate.
var ErrInvalidConfig = errors.New("pipeline: invalid configuration")

// Output describes one written artifact.
type Output struct {
	Path  string
	Bytes int
	// Digest is the xxh3 hash of the content.
	Digest uint64
	// Unchanged is true when the file already held identical content and
	// was left alone.
	Unchanged bool
}

// Report is the operator-facing outcome of a run.
type Report struct {
	Job       string
	Columns   int
	BaseRows  int
	Generated int
	Mappings  int
	Metadata  int

	Extract      extract.Stats
	ExtractTotal int

	Omitted  []string
	Summary  map[int]*clone.TierSummary
	Warnings []clone.Warning

	SQL        Output
	ExtractOut Output
	SkipLog    string
	Skipped    int

	Elapsed time.Duration
}

// inputs is everything loaded before generation.
type inputs struct {
	store   *template.Store
	tier1   *tier.List
	tier2   *tier.List
	extract *extract.File
}

// Run executes the configured generation. The returned Report is never nil:
// on failure it holds whatever was computed before the error.
func Run(ctx context.Context, cfg config.Config) (*Report, error) {
	start := time.Now()
	rep := &Report{Job: cfg.Job, SkipLog: cfg.Outputs.SkipLog}
	defer func() { rep.Elapsed = time.Since(start) }()

	if issues := config.Validate(cfg); config.HasErrors(issues) {
		errs := []error{ErrInvalidConfig}
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				errs = append(errs, iss)
			}
		}
		return rep, errors.Join(errs...)
	}

	gen, err := clone.New(cfg.CloneConfig())
	if err != nil {
		return rep, err
	}

	in, err := load(ctx, cfg)
	if err != nil {
		return rep, err
	}
	rep.Columns = in.store.Definition().Len()
	rep.BaseRows = in.store.Len()
	log.Printf("templates: rows=%d columns=%d table=%s source=%s",
		rep.BaseRows, rep.Columns, cfg.Source.Table, cfg.Source.Kind)

	var res *clone.Result
	err = stage(cfg, StageGenerate, func() error {
		var err error
		res, err = gen.Generate(in.store, in.tier1, in.tier2)
		return err
	})
	if res != nil {
		rep.Summary = res.Summary
		rep.Warnings = res.Warnings
	}
	if err != nil {
		return rep, fmt.Errorf("generate: %w", err)
	}
	recordResult(cfg.Job, res)

	var sqlBuf bytes.Buffer
	doc := sqlgen.FromResult(res, cfg.SQLOptions())
	rep.Generated = len(doc.Rows)
	rep.Mappings = len(doc.Mappings)
	rep.Metadata = len(doc.Metadata)
	rep.Omitted = doc.Omitted
	err = stage(cfg, StageRenderSQL, func() error {
		return sqlgen.Render(&sqlBuf, doc)
	})
	if err != nil {
		return rep, fmt.Errorf("render sql: %w", err)
	}

	var extBuf bytes.Buffer
	err = stage(cfg, StageSyncExtract, func() error {
		synced, st := extract.Sync(in.extract, res.SpanLo, res.SpanHi, res.ExtractRows)
		rep.Extract = st
		rep.ExtractTotal = st.Total()
		return extract.Write(&extBuf, synced)
	})
	if err != nil {
		return rep, fmt.Errorf("sync extract: %w", err)
	}

	err = stage(cfg, StageWriteOutputs, func() error {
		var staged []*file.Pending
		defer func() {
			for _, p := range staged {
				p.Abort()
			}
		}()
		add := func(path string, data []byte) (Output, error) {
			out, p, err := stageOutput(path, data)
			if p != nil {
				staged = append(staged, p)
			}
			return out, err
		}

		var err error
		if rep.SQL, err = add(cfg.Outputs.SQL, sqlBuf.Bytes()); err != nil {
			return err
		}
		if rep.ExtractOut, err = add(cfg.Outputs.ExtractTarget(), extBuf.Bytes()); err != nil {
			return err
		}
		if cfg.Outputs.SkipLog != "" {
			var skipBuf bytes.Buffer
			if rep.Skipped, err = renderSkipLog(&skipBuf, res.Warnings); err != nil {
				return err
			}
			if _, err = add(cfg.Outputs.SkipLog, skipBuf.Bytes()); err != nil {
				return err
			}
		}
		// Nothing is renamed until every output is staged.
		for _, p := range staged {
			if err := p.Commit(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("write outputs: %w", err)
	}

	log.Printf("run: job=%s generated=%d mappings=%d extract_rows=%d warnings=%d elapsed=%s",
		rep.Job, rep.Generated, rep.Mappings, rep.ExtractTotal, len(rep.Warnings), time.Since(start).Truncate(time.Millisecond))
	return rep, nil
}

// load reads the templates, both tier lists, and the extract concurrently.
func load(ctx context.Context, cfg config.Config) (*inputs, error) {
	var in inputs
	src := datasource.NewResolver(cfg.HTTPConfig())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return stage(cfg, StageLoadTemplates, func() error {
			var err error
			if in.store, err = loadTemplates(gctx, cfg, src); err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		return stage(cfg, StageLoadTiers, func() error {
			var err error
			if in.tier1, err = loadTier(gctx, src, cfg.Tiers.Tier1, 1, cfg.TierComma()); err != nil {
				return err
			}
			in.tier2, err = loadTier(gctx, src, cfg.Tiers.Tier2, 2, cfg.TierComma())
			return err
		})
	})
	g.Go(func() error {
		return stage(cfg, StageReadExtract, func() error {
			var err error
			if in.extract, err = readExtract(gctx, src.Source(cfg.Outputs.Extract), cfg.Outputs.Extract); err != nil {
				return fmt.Errorf("read extract: %w", err)
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &in, nil
}

func loadTemplates(ctx context.Context, cfg config.Config, src *datasource.Resolver) (*template.Store, error) {
	if cfg.Source.Kind == "dump" {
		return loadDump(ctx, cfg, src)
	}
	return loadDatabase(ctx, cfg)
}

// ResolveSchema returns the template table's column list from the configured
// source without loading any rows.
func ResolveSchema(ctx context.Context, cfg config.Config) (*schema.Definition, error) {
	if cfg.Source.Kind == "dump" {
		return dumpSchema(ctx, cfg, datasource.NewResolver(cfg.HTTPConfig()))
	}
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Source.Kind, DSN: cfg.Source.DSN})
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repoSchema(ctx, cfg, repo)
}

func dumpSchema(ctx context.Context, cfg config.Config, src *datasource.Resolver) (*schema.Definition, error) {
	path := cfg.Source.Schema
	if path == "" {
		path = cfg.Source.Templates
	}
	var def *schema.Definition
	err := stage(cfg, StageResolveSchema, func() error {
		rc, err := src.Source(path).Open(ctx)
		if err != nil {
			return err
		}
		defer rc.Close()
		def, err = schema.Resolve(rc, cfg.Source.Table)
		return err
	})
	return def, err
}

func repoSchema(ctx context.Context, cfg config.Config, repo storage.Repository) (*schema.Definition, error) {
	table := cfg.Source.Table
	var def *schema.Definition
	err := stage(cfg, StageResolveSchema, func() error {
		cols, err := repo.Columns(ctx, table)
		if errors.Is(err, storage.ErrTableNotFound) {
			return fmt.Errorf("%w: %s", schema.ErrSchemaNotFound, table)
		}
		if err != nil {
			return err
		}
		def, err = schema.FromColumns(table, cols)
		return err
	})
	return def, err
}

func loadDump(ctx context.Context, cfg config.Config, src *datasource.Resolver) (*template.Store, error) {
	def, err := dumpSchema(ctx, cfg, src)
	if err != nil {
		return nil, err
	}

	path := cfg.Source.Templates
	rc, err := src.Source(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	store, err := template.Load(rc, def)
	if err != nil {
		return nil, fmt.Errorf("templates %s: %w", path, err)
	}
	return store, nil
}

func loadDatabase(ctx context.Context, cfg config.Config) (*template.Store, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Source.Kind, DSN: cfg.Source.DSN})
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	def, err := repoSchema(ctx, cfg, repo)
	if err != nil {
		return nil, err
	}
	rows, err := repo.Rows(ctx, cfg.Source.Table, def.Columns(), def.Column(0))
	if err != nil {
		return nil, err
	}
	return template.FromRows(def, rows)
}

func loadTier(ctx context.Context, src *datasource.Resolver, path string, tierID int, comma rune) (*tier.List, error) {
	if path == "" {
		return nil, nil
	}
	return tier.LoadFrom(ctx, src.Source(path), path, tierID, comma)
}

func readExtract(ctx context.Context, in datasource.Source, path string) (*extract.File, error) {
	rc, err := in.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	f, err := extract.Read(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// stageOutput stages data for path unless path already holds the same bytes,
// in which case the returned Pending is nil.
func stageOutput(path string, data []byte) (Output, *file.Pending, error) {
	out := Output{Path: path, Bytes: len(data), Digest: xxh3.Hash(data)}
	if prev, err := os.ReadFile(path); err == nil && xxh3.Hash(prev) == out.Digest && bytes.Equal(prev, data) {
		out.Unchanged = true
		return out, nil, nil
	}
	p, err := file.Stage(path, data, 0o644)
	if err != nil {
		return out, nil, fmt.Errorf("write %s: %w", path, err)
	}
	return out, p, nil
}

// renderSkipLog writes one row per missing or skipped base and returns the count.
func renderSkipLog(out io.Writer, warnings []clone.Warning) (int, error) {
	sl, err := skiplog.NewWriter(out)
	if err != nil {
		return 0, err
	}
	for _, w := range warnings {
		if w.Reason != clone.ReasonMissing && w.Reason != clone.ReasonSkipped {
			continue
		}
		if err := sl.Add(w.Reason, w.BaseID, w.Tier, w.Message); err != nil {
			return 0, fmt.Errorf("skiplog: %w", err)
		}
	}
	if err := sl.Flush(); err != nil {
		return 0, err
	}
	return sl.Total(), nil
}

// stage times fn, records it, and logs it in verbose mode.
func stage(cfg config.Config, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(cfg.Job, name, err, d)
	if cfg.Verbose {
		status := "ok"
		if err != nil {
			status = "error"
		}
		log.Printf("stage: name=%s status=%s elapsed=%s", name, status, d.Truncate(time.Microsecond))
	}
	return err
}

func recordResult(job string, res *clone.Result) {
	for t, s := range res.Summary {
		if s == nil {
			continue
		}
		metrics.RecordTier(job, t, "bases", s.Bases)
		metrics.RecordTier(job, t, "clones", s.Clones)
		metrics.RecordTier(job, t, "missing", s.Missing)
		metrics.RecordTier(job, t, "skipped", s.Skipped)
	}
	for _, w := range res.Warnings {
		metrics.RecordWarning(job, w.Reason)
	}
}
