package testing

import (
	"context"
	"sync"

	"github.com/niksan004/Stonks/internal/domain"
)

// StaticProvider is a PriceDataProvider serving fixed resolutions.
type StaticProvider struct {
	mu          sync.RWMutex
	resolutions map[string]domain.Resolution
	calls       map[string]int
	err         error
}

// NewStaticProvider creates a provider serving the given resolutions by symbol.
func NewStaticProvider(resolutions ...domain.Resolution) *StaticProvider {
	p := &StaticProvider{
		resolutions: make(map[string]domain.Resolution),
		calls:       make(map[string]int),
	}
	for _, r := range resolutions {
		p.Set(r)
	}
	return p
}

// Set adds or replaces a resolution.
func (p *StaticProvider) Set(r domain.Resolution) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r.Symbol = domain.NormalizeSymbol(r.Symbol)
	p.resolutions[r.Symbol] = r
}

// SetError makes every subsequent Resolve fail with err.
func (p *StaticProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls returns how often symbol was resolved.
func (p *StaticProvider) Calls(symbol string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls[domain.NormalizeSymbol(symbol)]
}

// Resolve implements domain.PriceDataProvider.
func (p *StaticProvider) Resolve(_ context.Context, symbol string) (domain.Resolution, error) {
	symbol = domain.NormalizeSymbol(symbol)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[symbol]++

	if p.err != nil {
		return domain.Resolution{}, p.err
	}
	r, ok := p.resolutions[symbol]
	if !ok || r.Series.Empty() {
		return domain.Resolution{}, &domain.ResolutionError{Symbol: symbol, Err: domain.ErrNotFound}
	}
	return r, nil
}

var _ domain.PriceDataProvider = (*StaticProvider)(nil)
