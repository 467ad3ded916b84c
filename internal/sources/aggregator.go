package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/util"
)

// ErrFetch marks a failed remote lookup. An incomplete source list must not be written.
var ErrFetch = errors.New("fetch remote sources")

// Provider supplies dynamically trusted network specifications.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]string, error)
}

// Aggregator builds the source set for a run: static entries, then fetched ones.
type Aggregator struct {
	static   []string
	provider Provider
	log      *logrus.Entry
}

func NewAggregator(static []string, provider Provider, log *logrus.Entry) *Aggregator {
	return &Aggregator{static: static, provider: provider, log: log}
}

// Collect returns the ordered source set. Static entries are copied, never aliased.
func (a *Aggregator) Collect(ctx context.Context) ([]string, error) {
	sources := make([]string, 0, len(a.static))
	sources = append(sources, a.static...)

	fetched, err := a.provider.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrFetch, a.provider.Name(), err)
	}

	for _, s := range fetched {
		a.log.WithField("source", util.SanitizeForLog(s)).Debug("fetched source")
	}
	a.log.WithFields(logrus.Fields{
		"static":   len(a.static),
		"fetched":  len(fetched),
		"provider": a.provider.Name(),
	}).Info("sources aggregated")

	return append(sources, fetched...), nil
}
