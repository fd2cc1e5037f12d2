package observability

import (
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
)

// provider is the observability.Observability handed to use cases, the bus and the HTTP layer.
type provider struct {
	tracer     observability.Tracer
	logger     observability.Logger
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// New assembles a provider from already built instruments. Nil pieces and unknown metric keys
// resolve to no-op implementations.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	p := &provider{
		tracer:     tracer,
		logger:     logger,
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	for k, c := range counters {
		if c != nil {
			p.counters[k] = c
		}
	}
	for k, h := range histograms {
		if h != nil {
			p.histograms[k] = h
		}
	}
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p }

func (p *provider) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := p.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (p *provider) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := p.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// Options selects the backends composed by Build.
type Options struct {
	Tracer   observability.Tracer
	Logger   observability.Logger
	Registry prometrics.Registry
}

// Build registers every known metric on opts.Registry (if any) and assembles the provider.
func Build(opts Options) observability.Observability {
	if opts.Registry == nil {
		return New(opts.Tracer, opts.Logger, nil, nil)
	}
	counters, histograms := prometrics.RegisterAll(opts.Registry)
	return New(opts.Tracer, opts.Logger, counters, histograms)
}
