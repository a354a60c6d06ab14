package convert

import (
	"time"

	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/virtualizer"
)

// DiffTrees computes the edit-config fragment turning base into derived.
// Thin wrapper over the tree diff that records the outcome; callers that
// do not want instrumentation can use the tree package directly.
func (c *Converter) DiffTrees(base, derived *virtualizer.Virtualizer) (*virtualizer.Virtualizer, error) {
	start := time.Now()
	frag, err := virtualizer.Diff(base, derived)
	if err != nil {
		c.log.Error("Cannot compute tree diff", logging.Err(err))
		return nil, err
	}
	c.metrics.RecordDiff(frag.IsEmpty(), time.Since(start))
	c.log.Debug("Computed tree diff",
		logging.Int("nodes", len(frag.Nodes)),
		logging.Int("links", len(frag.Links)))
	return frag, nil
}
