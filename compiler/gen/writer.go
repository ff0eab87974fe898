package gen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/schema"
)

// TemplateWriter renders a TemplateSet for a frozen set. Rendering runs in
// parallel, writing runs in plan order once every artifact rendered.
type TemplateWriter struct {
	set  *schema.Set
	ts   *TemplateSet
	cfg  *Config
	plan []*Artifact

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation performance
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
	TemplateTime   int64 // nanoseconds
	FormatTime     int64 // nanoseconds
	WriteTime      int64 // nanoseconds
}

// NewTemplateWriter creates a writer. A target directory is required.
func NewTemplateWriter(ts *TemplateSet, set *schema.Set, opts ...Option) (*TemplateWriter, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Target == "" && !cfg.DryRun {
		return nil, optionError("Target", `""`, "missing target directory in config")
	}
	if set == nil || !set.Frozen() {
		return nil, domgen.NewConfigError(domgen.KindInvalidOption, "gen", "Set", "set must be built before generation")
	}
	return &TemplateWriter{set: set, ts: ts, cfg: cfg, metrics: &WriterMetrics{}}, nil
}

// Config returns the writer configuration.
func (w *TemplateWriter) Config() *Config { return w.cfg }

// Metrics returns the generation metrics.
func (w *TemplateWriter) Metrics() *WriterMetrics {
	return w.metrics
}

// Plan returns the planned artifacts, evaluating the output paths on the
// first call.
func (w *TemplateWriter) Plan() ([]*Artifact, error) {
	if w.plan != nil {
		return w.plan, nil
	}
	plan, err := w.ts.Plan(w.set, w.cfg)
	if err != nil {
		return nil, err
	}
	w.plan = plan
	return plan, nil
}

// Render plans and renders every artifact in memory.
func (w *TemplateWriter) Render(ctx context.Context) ([]*Artifact, error) {
	plan, err := w.Plan()
	if err != nil {
		return nil, err
	}
	log := w.cfg.Logger
	log.Debug().Int("artifacts", len(plan)).Int("workers", w.cfg.Workers).Msg("rendering")

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.cfg.Workers)
	for _, a := range plan {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.render(a)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (w *TemplateWriter) render(a *Artifact) error {
	start := time.Now()
	b, err := a.Map.Render(w.cfg.Target, a.Path, a.Data)
	elapsed := time.Since(start).Nanoseconds()
	if err != nil {
		var ferr *formatError
		if errors.As(err, &ferr) && !w.cfg.DryRun {
			w.writeDebug(a, ferr)
		}
		return err
	}
	a.Content = b

	w.mu.Lock()
	if a.Map.Format != nil {
		w.metrics.FormatTime += elapsed
	} else {
		w.metrics.TemplateTime += elapsed
	}
	w.mu.Unlock()
	return nil
}

// writeDebug writes the unformatted output next to the artifact. Errors are
// intentionally ignored as the run already failed.
func (w *TemplateWriter) writeDebug(a *Artifact, ferr *formatError) {
	debugPath := filepath.Join(w.cfg.Target, filepath.FromSlash(a.Path)) + ".error"
	_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
	_ = os.WriteFile(debugPath, ferr.src, 0o644)
	ferr.Message = fmt.Sprintf("format (unformatted written to %s)", debugPath)
}

// GenerateAll renders every artifact and, when all of them succeeded,
// writes them in plan order.
func (w *TemplateWriter) GenerateAll(ctx context.Context) error {
	plan, err := w.Render(ctx)
	if err != nil {
		return err
	}
	log := w.cfg.Logger
	if w.cfg.DryRun {
		log.Info().Int("artifacts", len(plan)).Msg("dry run, nothing written")
		return nil
	}
	if err := os.MkdirAll(w.cfg.Target, 0o755); err != nil {
		return domgen.NewGenerationError("", w.cfg.Target, "create output directory", err)
	}
	start := time.Now()
	for _, a := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(w.cfg.Target, a.Path, a.Map.Name(), a.Content); err != nil {
			return err
		}
		w.metrics.FilesGenerated++
		w.metrics.TotalBytes += int64(len(a.Content))
		log.Debug().Str("template", a.Map.Name()).Str("path", a.Path).Int("bytes", len(a.Content)).Msg("wrote artifact")
	}
	w.metrics.WriteTime = time.Since(start).Nanoseconds()
	log.Info().
		Str("target", w.cfg.Target).
		Int("files", w.metrics.FilesGenerated).
		Int64("bytes", w.metrics.TotalBytes).
		Msg("generation complete")
	return nil
}
