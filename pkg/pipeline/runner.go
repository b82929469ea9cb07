package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/equipviz/rotorline/pkg/cache"
	"github.com/equipviz/rotorline/pkg/errors"
	"github.com/equipviz/rotorline/pkg/layout"
	"github.com/equipviz/rotorline/pkg/render/lineage"
	"github.com/equipviz/rotorline/pkg/render/sink"
	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/table"
	"github.com/equipviz/rotorline/pkg/timeline"
)

// Runner executes the pipeline with caching. It is stateless apart from
// the cache and logger, so one Runner can serve concurrent requests with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer gets the DefaultKeyer, a nil
// cache disables caching via NullCache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	records, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Records = records
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RecordCount = len(records)
	result.CacheInfo.LoadHit = loadHit

	if data, err := json.Marshal(records); err == nil {
		result.RecordsHash = cache.Hash(data)
	}

	opts.Logger.Info("loaded records",
		"records", len(records),
		"duration", result.Stats.LoadTime)

	layoutStart := time.Now()
	s, span, layoutHit, err := r.LayoutWithCacheInfo(ctx, records, result.RecordsHash, opts)
	if err != nil {
		return nil, err
	}
	result.Scene = s
	result.Span = span
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(s.Nodes)
	result.Stats.EdgeCount = len(s.Edges)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("built scene",
		"years", span.Years(),
		"nodes", len(s.Nodes),
		"edges", len(s.Edges),
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, records, span, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads and projects the source table, reporting whether
// the projection came from cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) ([]timeline.Record, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	raw, err := os.ReadFile(opts.Source)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeUnreadableSource, err, "read %s", opts.Source)
	}
	key := r.Keyer.TableKey(cache.Hash(raw))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var records []timeline.Record
			if json.Unmarshal(data, &records) == nil {
				return records, true, nil
			}
		}
	}

	tbl, err := table.Load(opts.Source)
	if err != nil {
		return nil, false, err
	}
	records, err := timeline.Project(tbl)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(records); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLTable)
	}
	return records, false, nil
}

// LayoutWithCacheInfo resolves the span and builds the scene, reporting
// whether the scene came from cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, records []timeline.Record, recordsHash string, opts Options) (*scene.Scene, timeline.Span, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, timeline.Span{}, false, err
	}

	span := r.resolveSpan(records, opts)
	key := r.Keyer.SceneKey(recordsHash, opts.sceneKeyOpts(span))

	if !opts.Refresh && recordsHash != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var s scene.Scene
			if json.Unmarshal(data, &s) == nil {
				return &s, span, true, nil
			}
		}
	}

	s := layout.Compose(records, span, opts.Layout)

	if recordsHash != "" {
		if data, err := json.Marshal(s); err == nil {
			_ = r.Cache.Set(ctx, key, data, cache.TTLScene)
		}
	}
	return s, span, false, nil
}

// RenderWithCacheInfo serializes the scene in every requested format,
// reporting whether all artifacts came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *scene.Scene, records []timeline.Record, span timeline.Span, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	sceneHash := ""
	if data, err := json.Marshal(s); err == nil {
		sceneHash = cache.Hash(data)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(sceneHash, artifactVariant(format, opts.Detailed))

		if !opts.Refresh && sceneHash != "" {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		allHit = false

		data, err := r.renderFormat(format, s, records, span, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data

		if sceneHash != "" {
			_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
		}
	}
	return artifacts, allHit, nil
}

func (r *Runner) renderFormat(format string, s *scene.Scene, records []timeline.Record, span timeline.Span, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(s), nil
	case FormatJSON:
		return sink.RenderJSON(s, sink.WithJSONSpan(span), sink.WithJSONConfig(opts.Layout))
	case FormatDOT:
		dot := lineage.ToDOT(timeline.GroupRecords(records), lineage.Options{Detailed: opts.Detailed})
		return []byte(dot), nil
	case FormatLineage:
		dot := lineage.ToDOT(timeline.GroupRecords(records), lineage.Options{Detailed: opts.Detailed})
		return lineage.RenderSVG(dot)
	default:
		return nil, ValidateFormat(format)
	}
}

// resolveSpan uses the pinned year range when both ends are set, otherwise
// derives the range from the record dates.
func (r *Runner) resolveSpan(records []timeline.Record, opts Options) timeline.Span {
	if opts.FirstYear != 0 && opts.LastYear != 0 {
		return timeline.Span{First: opts.FirstYear, Last: opts.LastYear}
	}
	return timeline.ResolveSpan(records, opts.Now)
}

// artifactVariant folds render options that change the artifact bytes into
// the cache key.
func artifactVariant(format string, detailed bool) string {
	if detailed && (format == FormatDOT || format == FormatLineage) {
		return format + ":detailed"
	}
	return format
}

// Close releases the underlying cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
