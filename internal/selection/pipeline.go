package selection

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dostavka/selection-service/internal/catalog"
)

// SearchClient obtains per-pharmacy stock and substitutes for the requested
// SKUs from the inventory search service.
type SearchClient interface {
	Search(ctx context.Context, city string, skus []catalog.SkuRequest) ([]catalog.Pharmacy, error)
}

// Request is one selection invocation.
type Request struct {
	City    string
	Skus    []catalog.SkuRequest
	Address catalog.GeoPoint
}

// Service runs the full decision pipeline: inventory search, missing-item
// pre-scan, sequential priority filter, fulfillment ranking, shortlists,
// concurrent delivery pricing, and the closing-time-aware best option.
// Each invocation owns its working set; nothing is shared across requests.
type Service struct {
	cfg       *Config
	search    SearchClient
	filter    *PriorityFilter
	shortlist *Shortlister
	quotes    *QuoteResolver
	best      *BestOptionResolver
	metrics   *MetricsRecorder
	logger    zerolog.Logger

	// now is the clock used to freeze the evaluation instant, overridable
	// in tests and by the CLI.
	now func() time.Time
}

// NewService wires a selection service from its collaborators.
func NewService(cfg *Config, search SearchClient, pricing PricingClient) (*Service, error) {
	evaluator, err := NewStatusEvaluator(cfg.BusinessTimezone, cfg.ClosingSoonWindow)
	if err != nil {
		return nil, err
	}
	metrics := NewMetricsRecorder()
	return &Service{
		cfg:       cfg,
		search:    search,
		filter:    NewPriorityFilter(),
		shortlist: NewShortlister(cfg),
		quotes:    NewQuoteResolver(pricing, cfg, metrics),
		best:      NewBestOptionResolver(evaluator, cfg.DiscountMargin),
		metrics:   metrics,
		logger:    log.With().Str("component", "selection_service").Logger(),
		now:       time.Now,
	}, nil
}

// SetClock overrides the clock used to capture the evaluation instant.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Select runs the pipeline for one request.
func (s *Service) Select(ctx context.Context, req Request) (catalog.SelectionResult, error) {
	if err := s.validate(req); err != nil {
		return catalog.SelectionResult{}, err
	}
	s.metrics.RecordRequestSKUs(len(req.Skus))

	// One frozen instant judges every pharmacy in this resolution.
	now := s.now()

	pharmacies, err := s.stageSearch(ctx, req)
	if err != nil {
		return catalog.SelectionResult{}, err
	}
	if len(pharmacies) == 0 {
		return catalog.SelectionResult{}, ErrNoPharmacies
	}

	partial := s.timed("prescan", func() []catalog.Pharmacy {
		return WithMissingItems(pharmacies, req.Skus)
	})
	s.metrics.RecordCandidates("prescan", len(partial))
	s.logger.Debug().Int("count", len(partial)).Msg("pharmacies with missing items")

	var offers []*catalog.PharmacyOffer
	start := time.Now()
	offers = s.filter.Filter(partial, req.Skus)
	s.metrics.RecordStageDuration("filter", time.Since(start))
	s.metrics.RecordCandidates("filter", len(offers))
	s.logger.Debug().Int("count", len(offers)).Msg("pharmacies after priority filter")

	top := TopFulfilled(offers)
	s.metrics.RecordCandidates("rank", len(top))
	s.logger.Debug().Int("count", len(top)).Msg("pharmacies in maximal fulfillment group")

	closest := s.shortlist.Closest(top, req.Address)
	cheapest := s.shortlist.Cheapest(top)
	s.metrics.RecordCandidates("shortlist", len(closest)+len(cheapest))

	start = time.Now()
	closestQuotes, err := s.quotes.Resolve(ctx, closest, req.Address)
	if err != nil {
		return catalog.SelectionResult{}, err
	}
	cheapestQuotes, err := s.quotes.Resolve(ctx, cheapest, req.Address)
	if err != nil {
		return catalog.SelectionResult{}, err
	}
	s.metrics.RecordStageDuration("quotes", time.Since(start))

	allQuotes := append(closestQuotes, cheapestQuotes...)
	s.metrics.RecordQuoteCount(len(allQuotes))
	s.logger.Debug().Int("count", len(allQuotes)).Msg("delivery quotes collected")

	result := s.best.Resolve(allQuotes, now)
	s.metrics.RecordOutcome(outcomeKind(result))
	return result, nil
}

func (s *Service) stageSearch(ctx context.Context, req Request) ([]catalog.Pharmacy, error) {
	start := time.Now()
	pharmacies, err := s.search.Search(ctx, req.City, req.Skus)
	s.metrics.RecordStageDuration("search", time.Since(start))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCandidates("search", len(pharmacies))
	return pharmacies, nil
}

func (s *Service) timed(stage string, fn func() []catalog.Pharmacy) []catalog.Pharmacy {
	start := time.Now()
	out := fn()
	s.metrics.RecordStageDuration(stage, time.Since(start))
	return out
}

func (s *Service) validate(req Request) error {
	if req.City == "" {
		return ErrInvalidRequest{Field: "city", Reason: "cannot be empty"}
	}
	if len(req.Skus) == 0 {
		return ErrInvalidRequest{Field: "skus", Reason: "must have at least one line"}
	}
	if s.cfg.MaxSKUs > 0 && len(req.Skus) > s.cfg.MaxSKUs {
		return ErrInvalidRequest{Field: "skus", Reason: "exceeds maximum allowed"}
	}
	seen := make(map[string]struct{}, len(req.Skus))
	for i, line := range req.Skus {
		if line.SKU == "" {
			return ErrInvalidRequest{Field: "skus", Reason: "empty sku at index " + strconv.Itoa(i)}
		}
		if line.CountDesired <= 0 {
			return ErrInvalidRequest{Field: "skus", Reason: "count_desired must be positive for " + line.SKU}
		}
		if _, dup := seen[line.SKU]; dup {
			return ErrInvalidRequest{Field: "skus", Reason: "duplicate sku " + line.SKU}
		}
		seen[line.SKU] = struct{}{}
	}
	return nil
}

func outcomeKind(r catalog.SelectionResult) string {
	switch {
	case r.CheapestOpen == nil && r.FastestOpen == nil:
		return "no_viable"
	case r.AlternativeCheapest != nil || r.AlternativeFastest != nil:
		return "with_alternative"
	default:
		return "open"
	}
}
