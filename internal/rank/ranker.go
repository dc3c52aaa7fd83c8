package rank

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ctxspine/repomap/internal/graph"
	"github.com/ctxspine/repomap/internal/index"
)

// Ranker computes RankedFile scores from a graph, file records, and a
// seed set, per §4.7.
type Ranker struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
	weights Weights
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracer attaches an OpenTelemetry tracer for the rank span.
func WithTracer(t trace.Tracer) Option {
	return func(r *Ranker) {
		if t != nil {
			r.tracer = t
		}
	}
}

// withClock overrides the ranker's notion of "now", for deterministic
// freshness-feature tests.
func withClock(now func() time.Time) Option {
	return func(r *Ranker) { r.now = now }
}

// WithWeights overrides the default §4.7 scoring weights, e.g. from engine
// settings (config.RankerWeights).
func WithWeights(w Weights) Option {
	return func(r *Ranker) { r.weights = w }
}

// New constructs a Ranker.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		logger:  slog.Default(),
		tracer:  trace.NewNoopTracerProvider().Tracer("rank"),
		now:     time.Now,
		weights: DefaultWeights,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every file node in g against records and seeds, returning
// the top-K entries sorted by score descending, per §4.7.
func (r *Ranker) Rank(ctx context.Context, g *graph.Graph, records map[string]index.FileRecord, seeds []string, topK int) []RankedFile {
	_, span := r.tracer.Start(ctx, "rank.Rank")
	defer span.End()
	span.SetAttributes(attribute.Int("repomap.seeds", len(seeds)), attribute.Int("repomap.topK", topK))

	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}

	personalization := buildPersonalization(g, seedSet)
	pprScores := personalizedPageRank(g, personalization)

	var fileNodes []graph.Node
	var fileIDs []string
	for _, n := range g.Nodes() {
		if n.Kind == graph.NodeKindFile {
			fileNodes = append(fileNodes, n)
			fileIDs = append(fileIDs, n.ID)
		}
	}
	normalizedPPR := minMaxNormalizePPR(pprScores, fileIDs)
	incoming := buildIncomingIndex(g)
	now := r.now()

	ranked := make([]RankedFile, 0, len(fileNodes))
	for _, n := range fileNodes {
		rec := records[n.Path]
		features := Features{
			PPR:            normalizedPPR[n.ID],
			Risk:           riskFor(n.Path),
			BoundaryImpact: boundaryImpactFor(g, n.ID, incoming),
			TestGap:        testGapFor(n.Path, n.ID, incoming),
			Freshness:      freshnessFor(rec, now),
		}
		ranked = append(ranked, RankedFile{
			Path:     n.Path,
			Score:    r.weights.score(features),
			Features: features,
			Reasons:  reasonsFor(features),
			IsSeed:   seedSet[n.Path],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Path < ranked[j].Path
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	span.SetAttributes(attribute.Int("repomap.ranked", len(ranked)))
	r.logger.Info("ranking complete", "files", len(fileNodes), "returned", len(ranked))
	return ranked
}
