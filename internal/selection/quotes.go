package selection

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dostavka/selection-service/internal/catalog"
)

// PricingClient obtains delivery options for a basket at one pharmacy.
type PricingClient interface {
	DeliveryOptions(ctx context.Context, req catalog.DeliveryRequest) ([]catalog.DeliveryOption, error)
}

// QuoteResolver fans a shortlist out to the delivery pricing service and
// folds the options into quotes. Pharmacy calls within one shortlist are
// independent and run concurrently; results are merged in shortlist order
// so the output is reproducible.
type QuoteResolver struct {
	pricing PricingClient
	cfg     *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewQuoteResolver creates a quote resolver.
func NewQuoteResolver(pricing PricingClient, cfg *Config, metrics *MetricsRecorder) *QuoteResolver {
	return &QuoteResolver{
		pricing: pricing,
		cfg:     cfg,
		metrics: metrics,
		logger:  log.With().Str("component", "quote_resolver").Logger(),
	}
}

// Resolve obtains quotes for every eligible pharmacy in the shortlist.
// Pharmacies lacking a source code or yielding no purchasable items are
// skipped. A pricing failure for one pharmacy yields zero quotes for it
// unless StrictPricing is set, in which case the whole batch fails.
func (r *QuoteResolver) Resolve(ctx context.Context, offers []*catalog.PharmacyOffer, dst catalog.GeoPoint) ([]catalog.Quote, error) {
	type task struct {
		offer *catalog.PharmacyOffer
		req   catalog.DeliveryRequest
	}

	tasks := make([]task, 0, len(offers))
	for _, o := range offers {
		if o.Source.Code == "" {
			r.logger.Warn().Str("pharmacy", o.Source.Name).Msg("skipping pharmacy without source code")
			continue
		}
		items := purchasableItems(o)
		if len(items) == 0 {
			continue
		}
		tasks = append(tasks, task{
			offer: o,
			req: catalog.DeliveryRequest{
				Items:      items,
				Dst:        dst,
				SourceCode: o.Source.Code,
			},
		})
	}

	slots := make([][]catalog.Quote, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			options, err := r.pricing.DeliveryOptions(gctx, t.req)
			if err != nil {
				r.metrics.RecordPricingFailure(t.req.SourceCode)
				if r.cfg.StrictPricing {
					return err
				}
				r.logger.Error().Err(err).
					Str("pharmacy", t.req.SourceCode).
					Msg("delivery pricing failed, pharmacy contributes no quotes")
				return nil
			}
			quotes := make([]catalog.Quote, 0, len(options))
			for _, opt := range options {
				quotes = append(quotes, catalog.Quote{
					Offer:      t.offer,
					Delivery:   opt,
					TotalPrice: t.offer.TotalSum.Add(opt.Price),
				})
			}
			slots[i] = quotes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []catalog.Quote
	for _, quotes := range slots {
		merged = append(merged, quotes...)
	}
	return merged, nil
}

// purchasableItems maps resolved lines to the items sent to the pricing
// service. Lines already carry the chosen SKU, original or analog.
func purchasableItems(o *catalog.PharmacyOffer) []catalog.DeliveryItem {
	items := make([]catalog.DeliveryItem, 0, len(o.Lines))
	for _, line := range o.Lines {
		items = append(items, catalog.DeliveryItem{
			SKU:      line.SKU,
			Quantity: line.Quantity,
		})
	}
	return items
}
