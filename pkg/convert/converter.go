// Package convert implements the bidirectional conversion between the graph
// model (pkg/nffg) and the tree model (pkg/virtualizer), including service
// request generation for a collapsed single-node view.
package convert

import (
	"regexp"

	"github.com/nfvio/topoconv/pkg/config"
	"github.com/nfvio/topoconv/pkg/flowops"
	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/metrics"
	"github.com/nfvio/topoconv/pkg/naming"
)

// Element names reserved by the conversion.
const (
	// TypeBiSBiS is the infra type of a collapsed single-node view.
	TypeBiSBiS = "BiSBiS"

	// SingleBiSBiSID is the id of a synthesized single-node topology.
	SingleBiSBiSID = "SingleBiSBiS"

	// extSrcName marks an external element in a tag label context.
	extSrcName = "external"
)

// externalPortRe extracts domain, node and port ids from a URI-like external
// port reference.
var externalPortRe = regexp.MustCompile(`(.*)://.*node\[id=(.*?)\].*port\[id=(.*?)\].*`)

// Converter translates topologies between the two models. One Converter is
// safe to reuse across calls; each call builds its own output document.
type Converter struct {
	cfg     config.Config
	log     logging.Logger
	metrics *metrics.Registry
	names   *naming.Manager
	codec   *flowops.Codec
}

// New creates a Converter. A nil logger or registry disables the concern.
func New(cfg config.Config, log logging.Logger, reg *metrics.Registry) *Converter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	log = log.With(logging.Component("convert"))
	c := &Converter{
		cfg:     cfg,
		log:     log,
		metrics: reg,
		names: naming.New(cfg.Domain,
			cfg.EnsureUniqueBiSBiSID, cfg.EnsureUniqueVNFID),
		codec: flowops.NewCodec(log),
	}
	c.log.Debug("Created converter", logging.String("domain", cfg.Domain))
	return c
}

// Names exposes the namespace manager, mainly for request-level id rewrites.
func (c *Converter) Names() *naming.Manager { return c.names }

// DisableUniqueBBID turns off infra id qualification for later conversions.
// Already generated ids stay valid for recreation.
func (c *Converter) DisableUniqueBBID() {
	c.log.Debug("Disable unique BiSBiS id recreation")
	c.names.DisableUniqueBBID()
}

// parseExternalPort splits a URI-like external reference into its domain,
// node and port components.
func parseExternalPort(ref string) (domain, node, port string, ok bool) {
	m := externalPortRe.FindStringSubmatch(ref)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}
