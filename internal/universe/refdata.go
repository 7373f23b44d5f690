package universe

import (
	"context"
	"time"

	"bandwatch/internal/faulttolerance"
)

// RefreshReferenceData merges each auxiliary data set into live state.
// Each fetch is independently optional and retried a bounded number of times
// with a fixed delay; a close-price failure is additionally surfaced to the
// Notifier because price-change display depends on it.
func (m *Manager) RefreshReferenceData(ctx context.Context) {
	closeRetry := faulttolerance.NewRetryer(faulttolerance.RetryConfig{
		MaxAttempts: 10,
		Delay:       time.Second,
		Name:        "close-prices",
	}, m.logger)

	if err := closeRetry.Execute(ctx, func() error { return m.mergeClosePrices(ctx) }); err != nil {
		m.notifier.OnEvent("close prices unreachable, price changes degraded")
	}

	auxRetry := faulttolerance.NewRetryer(faulttolerance.RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Second,
		Name:        "refdata",
	}, m.logger)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"reports", m.mergeReports},
		{"shorts", m.mergeShortInterest},
		{"index-membership", m.mergeIndexMembership},
		{"price-steps", m.mergePriceSteps},
		{"morning", m.mergeMorningMovers},
	}

	for _, step := range steps {
		fn := step.fn
		if err := auxRetry.Execute(ctx, func() error { return fn(ctx) }); err != nil {
			m.logger.Warnf("reference data %s skipped: %v", step.name, err)
		}
	}
}

// RunIndexLoop refreshes the market index snapshot forever, pausing briefly
// after a failed fetch.
func (m *Manager) RunIndexLoop(ctx context.Context) {
	for {
		indices, err := m.ref.Indices(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warnf("index fetch failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(indexRetryDelay):
			}
			continue
		}

		m.mu.Lock()
		m.indices = indices
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(indexRefreshEvery):
		}
	}
}

func (m *Manager) mergeClosePrices(ctx context.Context) error {
	prices, err := m.ref.ClosePrices(ctx)
	if err != nil {
		return err
	}
	m.queue.Wait(func() {
		for _, st := range m.All() {
			if cp, ok := prices[st.Ticker()]; ok {
				st.ApplyClosePrice(cp)
			}
		}
	})
	return nil
}

func (m *Manager) mergeReports(ctx context.Context) error {
	reports, err := m.ref.Reports(ctx)
	if err != nil {
		return err
	}
	m.queue.Wait(func() {
		for _, st := range m.All() {
			if r, ok := reports[st.Ticker()]; ok {
				st.ApplyReport(r)
			}
		}
	})
	return nil
}

func (m *Manager) mergeShortInterest(ctx context.Context) error {
	shorts, err := m.ref.ShortInterest(ctx)
	if err != nil {
		return err
	}
	m.queue.Wait(func() {
		for _, st := range m.All() {
			if si, ok := shorts[st.Ticker()]; ok {
				st.ApplyShortInterest(si)
			}
		}
	})
	return nil
}

func (m *Manager) mergeIndexMembership(ctx context.Context) error {
	membership, err := m.ref.IndexMembership(ctx)
	if err != nil {
		return err
	}
	m.queue.Wait(func() {
		for _, st := range m.All() {
			if indices, ok := membership[st.Ticker()]; ok {
				st.ApplyIndices(indices)
			}
		}
	})
	return nil
}

func (m *Manager) mergePriceSteps(ctx context.Context) error {
	steps, err := m.ref.PriceSteps(ctx)
	if err != nil {
		return err
	}
	m.queue.Wait(func() {
		for _, st := range m.All() {
			if ps, ok := steps[st.Ticker()]; ok {
				st.ApplyPriceSteps(ps)
			}
		}
	})
	return nil
}

func (m *Manager) mergeMorningMovers(ctx context.Context) error {
	movers, err := m.ref.MorningMovers(ctx)
	if err != nil {
		return err
	}
	m.queue.Wait(func() {
		for _, st := range m.All() {
			if mover, ok := movers[st.Ticker()]; ok {
				st.ApplyMorning(mover.Raw)
			}
		}
	})
	return nil
}
