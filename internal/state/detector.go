package state

import (
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/config"
)

// Detector compares a fresh source set with the persisted snapshot.
type Detector struct {
	store   *Store
	compare config.Compare
	log     *logrus.Entry
}

func NewDetector(store *Store, compare config.Compare, log *logrus.Entry) *Detector {
	return &Detector{store: store, compare: compare, log: log}
}

// Changed reports whether current differs from the snapshot.
// An absent or unreadable snapshot always counts as a change.
func (d *Detector) Changed(current []string) bool {
	previous, err := d.store.Load()
	if err != nil {
		d.log.WithError(err).WithField("state_file", d.store.Path()).Warn("Cannot access state, forcing reload")
		return true
	}
	return !Equal(previous, current, d.compare)
}

// Equal compares two source sets under the given policy.
// CompareSet looks at distinct members only; CompareOrdered needs identical sequences.
func Equal(a, b []string, compare config.Compare) bool {
	if compare == config.CompareOrdered {
		return slices.Equal(a, b)
	}
	return lo.Every(a, b) && lo.Every(b, a)
}
