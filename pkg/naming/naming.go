// Package naming generates and reverses domain-qualified node and NF
// identifiers so several domain-local topologies can be merged without id
// collision.
package naming

import "strings"

// Delimiter between the raw id and its qualifying suffix.
const Delimiter = "@"

// Manager qualifies graph ids with a domain suffix. Its configuration is
// process-wide, set once at startup; callers that reconfigure it mid-flight
// must serialize access externally.
type Manager struct {
	domain   string
	uniqueBB bool
	uniqueNF bool
}

// New creates a Manager for the given domain. Qualification only happens
// when the respective unique-id mode is enabled.
func New(domain string, uniqueBB, uniqueNF bool) *Manager {
	return &Manager{domain: domain, uniqueBB: uniqueBB, uniqueNF: uniqueNF}
}

// Domain returns the configured domain name.
func (m *Manager) Domain() string { return m.domain }

// DisableUniqueBBID switches off infra id qualification. Already generated
// ids stay valid: RecreateBBID becomes the identity, so unqualified ids pass
// through untouched.
func (m *Manager) DisableUniqueBBID() { m.uniqueBB = false }

// UniqueBBID qualifies an infra node id as `id@domain` when unique-id mode
// is on and a domain is set, else returns the raw id.
func (m *Manager) UniqueBBID(id string) string {
	if m.uniqueBB && m.domain != "" {
		return id + Delimiter + m.domain
	}
	return id
}

// RecreateBBID strips the trailing `@domain` suffix. Exact inverse of
// UniqueBBID while unique-id mode is on.
func (m *Manager) RecreateBBID(id string) string {
	if !m.uniqueBB {
		return id
	}
	if i := strings.LastIndex(id, Delimiter); i >= 0 {
		return id[:i]
	}
	return id
}

// UniqueNFID qualifies an NF id with the owning infra id: `id@bbID`. The
// infra id may itself be domain-qualified.
func (m *Manager) UniqueNFID(id, bbID string) string {
	if m.uniqueNF {
		return id + Delimiter + bbID
	}
	return id
}

// RecreateNFID strips everything after the first delimiter. The suffix alone
// determines inversion; the owning infra id is not needed.
func (m *Manager) RecreateNFID(id string) string {
	if !m.uniqueNF {
		return id
	}
	if i := strings.Index(id, Delimiter); i >= 0 {
		return id[:i]
	}
	return id
}
