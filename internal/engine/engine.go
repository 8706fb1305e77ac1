// Package engine resolves a batch of identifiers into an immutable set of
// base interval records, collecting identifiers without data and pausing
// genes that need an explicit transcript decision.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
	"github.com/inodb/vibe-bed/internal/interval"
	"github.com/inodb/vibe-bed/internal/selector"
)

// DefaultWorkers is the number of concurrent gateway lookups per batch.
const DefaultWorkers = 10

// ErrPendingDisambiguation is returned when finalizing a session that still
// has genes awaiting a transcript decision.
var ErrPendingDisambiguation = errors.New("transcript disambiguation pending")

// warningSep joins several selector warnings into the single record field.
const warningSep = " | "

// Request is one resolution batch.
type Request struct {
	Identifiers []string // Gene symbols, transcript accessions, rsIDs or coordinates
	Coordinates []string // Literal chr:start-end ranges, validated line by line
	Assembly    cache.Assembly
	// FromPanel marks a panel-derived gene list, where repeated genes are
	// dropped silently instead of rejecting the batch.
	FromPanel bool
	// Choices are disambiguation decisions supplied up front.
	Choices selector.Choices
}

// LookupError records a gateway failure other than "not found" for one identifier.
type LookupError struct {
	Token string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Token, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Engine resolves identifier batches against a metadata gateway.
type Engine struct {
	gateway cache.Gateway
	workers int
	logger  *zap.Logger
}

// New creates an engine backed by the given gateway.
func New(g cache.Gateway) *Engine {
	return &Engine{
		gateway: g,
		workers: DefaultWorkers,
		logger:  zap.NewNop(),
	}
}

// SetWorkers sets the number of concurrent lookups. Values below 1 use DefaultWorkers.
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		n = DefaultWorkers
	}
	e.workers = n
}

// SetLogger sets the logger for lookup diagnostics.
func (e *Engine) SetLogger(logger *zap.Logger) {
	e.logger = logger
}

// Resolve classifies, looks up and selects transcripts for every identifier
// in the request. Per-identifier failures are collected on the session;
// only a duplicate identifier rejects the whole batch.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Session, error) {
	asm := req.Assembly
	if asm == "" {
		asm = cache.GRCh38
	}

	tokens := make([]string, 0, len(req.Identifiers)+len(req.Coordinates))
	tokens = append(tokens, req.Identifiers...)

	var malformed []*identifier.MalformedError
	for _, line := range req.Coordinates {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := identifier.ParseRegion(line); err != nil {
			var me *identifier.MalformedError
			if !errors.As(err, &me) {
				return nil, fmt.Errorf("parse coordinate %q: %w", line, err)
			}
			malformed = append(malformed, me)
			continue
		}
		tokens = append(tokens, line)
	}

	batch, err := identifier.ClassifyBatch(tokens, identifier.Options{SilentDedup: req.FromPanel})
	if err != nil {
		return nil, err
	}

	sess := newSession(asm)
	sess.Malformed = append(malformed, batch.Malformed...)

	e.logger.Info("resolving batch",
		zap.String("assembly", asm.String()),
		zap.Int("identifiers", len(batch.Identifiers)),
		zap.Int("genes", batch.Count(identifier.GeneSymbol)),
		zap.Int("transcripts", batch.Count(identifier.TranscriptID)),
		zap.Int("rsids", batch.Count(identifier.RsID)),
		zap.Int("coordinates", batch.Count(identifier.CoordinateRange)),
		zap.Int("malformed", len(sess.Malformed)))

	items := make(chan WorkItem, 2*e.workers)
	go func() {
		defer close(items)
		for i, id := range batch.Identifiers {
			items <- WorkItem{Seq: i, ID: id}
		}
	}()

	var records []interval.Record
	err = OrderedCollect(e.parallelLookup(ctx, items, asm), func(r WorkResult) error {
		records = append(records, e.collect(sess, r, req.Choices)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect results: %w", err)
	}
	sess.snapshot = NewSnapshot(records)

	e.logger.Info("batch resolved",
		zap.String("session", sess.ID),
		zap.Int("records", sess.snapshot.Len()),
		zap.Int("no_data", len(sess.NoData)),
		zap.Int("pending", len(sess.Pending())),
		zap.Int("errors", len(sess.Errors)))
	return sess, nil
}

// lookup performs the gateway calls for one identifier.
func (e *Engine) lookup(ctx context.Context, item WorkItem, asm cache.Assembly) WorkResult {
	res := WorkResult{Seq: item.Seq, ID: item.ID}
	switch item.ID.Kind {
	case identifier.GeneSymbol, identifier.TranscriptID:
		res.Selection, res.Err = e.selectTranscript(ctx, item.ID, asm)
	case identifier.RsID:
		res.Variant, res.Err = e.gateway.LookupVariant(ctx, item.ID.Token, asm)
	case identifier.CoordinateRange:
		res.Genes, res.Err = e.gateway.LookupRegion(ctx, item.ID.Region, asm)
	default:
		res.Err = fmt.Errorf("unsupported identifier kind %s", item.ID.Kind)
	}
	return res
}

// selectTranscript fetches candidates and runs the selector. GRCh37 batches
// also fetch the GRCh38 transcripts concurrently so the MANE Select
// accession can be carried across.
func (e *Engine) selectTranscript(ctx context.Context, id identifier.Identifier, asm cache.Assembly) (*selector.Selection, error) {
	in := selector.Input{Identifier: id, Assembly: asm}
	key := id.LookupKey()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ts, err := e.gateway.LookupTranscripts(gctx, key, asm)
		if errors.Is(err, cache.ErrNotFound) && asm == cache.GRCh37 {
			return nil
		}
		if err != nil {
			return err
		}
		in.Transcripts = ts
		return nil
	})
	if asm == cache.GRCh37 {
		g.Go(func() error {
			ts, err := e.gateway.LookupTranscripts(gctx, key, cache.GRCh38)
			if err != nil {
				if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, context.Canceled) {
					e.logger.Debug("GRCh38 reference lookup failed",
						zap.String("identifier", id.Token), zap.Error(err))
				}
				return nil
			}
			in.GRCh38 = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sel := selector.Select(in)
	if sel.State == selector.NoCandidate && asm == cache.GRCh37 {
		mapped, err := e.selectViaGRCh38(ctx, in, key)
		if err != nil {
			return nil, err
		}
		if mapped != nil {
			return mapped, nil
		}
	}
	if sel.State == selector.NoCandidate {
		return nil, cache.ErrNotFound
	}
	return sel, nil
}

// selectViaGRCh38 retries a GRCh37 identifier with no direct transcript by
// looking up the GRCh38 MANE Select accession in GRCh37. Returns nil when
// that finds nothing either.
func (e *Engine) selectViaGRCh38(ctx context.Context, in selector.Input, key string) (*selector.Selection, error) {
	mane := selector.GRCh38ManeSelect(in.GRCh38)
	if mane == nil || strings.EqualFold(mane.Accession, key) {
		return nil, nil
	}
	mapped, err := e.gateway.LookupTranscripts(ctx, mane.Accession, cache.GRCh37)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("mapped GRCh37 identifier through GRCh38 MANE Select",
		zap.String("identifier", in.Identifier.Token), zap.String("accession", mane.Accession))
	in.Mapped = mapped
	sel := selector.Select(in)
	if sel.State == selector.NoCandidate {
		return nil, nil
	}
	return sel, nil
}

// collect folds one lookup result into the session and returns its records.
func (e *Engine) collect(sess *Session, r WorkResult, choices selector.Choices) []interval.Record {
	id := r.ID
	if id.Kind == identifier.CoordinateRange {
		return e.coordinateRecords(r)
	}

	if r.Err != nil {
		if errors.Is(r.Err, cache.ErrNotFound) {
			e.logger.Debug("no data for identifier", zap.String("identifier", id.Token))
			sess.NoData = append(sess.NoData, id.Token)
		} else {
			e.logger.Warn("lookup failed", zap.String("identifier", id.Token), zap.Error(r.Err))
			sess.Errors = append(sess.Errors, &LookupError{Token: id.Token, Err: r.Err})
		}
		return nil
	}

	if r.Variant != nil {
		return []interval.Record{interval.FromVariant(r.Variant, id.Token, id.Index)}
	}

	sel := r.Selection
	if sel.State == selector.PendingDisambiguation {
		if choice, ok := choices.Lookup(sel.Gene); ok {
			resolved, err := sel.Resolve(choice)
			if err != nil {
				e.logger.Warn("ignoring disambiguation choice",
					zap.String("gene", sel.Gene), zap.String("choice", choice), zap.Error(err))
			} else {
				sel = resolved
			}
		}
	}
	sess.selections = append(sess.selections, sel)
	if !sel.Final() {
		return nil
	}
	return selectionRecords(sel)
}

// coordinateRecords emits one row per overlapping named gene. Unnamed
// features are only used when no named gene overlaps.
func (e *Engine) coordinateRecords(r WorkResult) []interval.Record {
	id := r.ID
	if r.Err != nil {
		e.logger.Warn("region lookup failed", zap.String("coordinate", id.Token), zap.Error(r.Err))
	}

	var named, unnamed []cache.GeneFeature
	for _, g := range r.Genes {
		if g.Name != "" {
			named = append(named, g)
		} else {
			unnamed = append(unnamed, g)
		}
	}

	features, alert := named, fmt.Sprintf("Coordinate %s overlaps multiple genes.", id.Token)
	if len(named) == 0 {
		features, alert = unnamed, fmt.Sprintf("Coordinate %s overlaps multiple uncharacterised genomic regions.", id.Token)
	}
	if len(features) == 0 {
		alert = fmt.Sprintf("No genes found overlapping coordinate %s.", id.Token)
		return []interval.Record{interval.FromCoordinate(id.Region, nil, alert, id.Token, id.Index)}
	}
	if len(features) == 1 {
		alert = ""
	}

	records := make([]interval.Record, 0, len(features))
	for i := range features {
		records = append(records, interval.FromCoordinate(id.Region, &features[i], alert, id.Token, id.Index))
	}
	return records
}

func selectionRecords(sel *selector.Selection) []interval.Record {
	return interval.FromTranscript(sel.Transcript, sel.Status,
		strings.Join(sel.Warnings, warningSep), sel.Identifier.Token, sel.Identifier.Index)
}
