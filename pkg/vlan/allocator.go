// Package vlan issues collision-free VLAN identifiers for abstract service
// hops. A registry is scoped to one service request's lifetime and shared by
// every conversion touching that request.
package vlan

import (
	"errors"
	"regexp"
	"strconv"
	"sync"

	"github.com/nfvio/topoconv/pkg/logging"
)

// Valid VLAN ids: 0 and 4095 are reserved.
const (
	MinID = 1
	MaxID = 4094
)

// ErrExhausted is returned when every id in [MinID, MaxID] is taken. The
// caller must treat this as fatal for the hop being processed.
var ErrExhausted = errors.New("VLAN id range exhausted")

var trailingDigits = regexp.MustCompile(`\d+$`)

// Allocator is a stateful id registry. Allocation is monotonic: no id is
// freed within the registry's lifetime. Safe for concurrent use.
type Allocator struct {
	mu  sync.Mutex
	log logging.Logger
	reg map[string]uint16
}

// NewAllocator creates an empty registry. Pass one registry per service
// request; never share a process-wide instance across requests.
func NewAllocator(log logging.Logger) *Allocator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Allocator{
		log: log.With(logging.Component("vlan")),
		reg: make(map[string]uint16),
	}
}

func (a *Allocator) taken(id uint16) bool {
	for _, v := range a.reg {
		if v == id {
			return true
		}
	}
	return false
}

// Allocate returns the VLAN id for the (abstractID, scopeID) pair, reusing a
// previous allocation for the same pair. New ids are derived from the
// abstract id when it is (or ends in) a free number in range, else the first
// free id is taken by linear scan.
func (a *Allocator) Allocate(abstractID, scopeID string) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := abstractID + "-" + scopeID
	if v, ok := a.reg[key]; ok {
		a.log.Debug("Found registered VLAN id",
			logging.String("key", key), logging.Int("vlan", int(v)))
		return v, nil
	}

	// The abstract id itself may be a usable VLAN id.
	if n, err := strconv.Atoi(abstractID); err == nil {
		if n >= MinID && n <= MaxID && !a.taken(uint16(n)) {
			a.reg[key] = uint16(n)
			a.log.Debug("Abstract id is a free VLAN id",
				logging.String("key", key), logging.Int("vlan", n))
			return uint16(n), nil
		}
	}

	// Otherwise its decimal tail may be.
	if tail := trailingDigits.FindString(abstractID); tail != "" {
		if n, err := strconv.Atoi(tail); err == nil &&
			n >= MinID && n <= MaxID && !a.taken(uint16(n)) {
			a.reg[key] = uint16(n)
			a.log.Debug("Trailing number is a free VLAN id",
				logging.String("key", key), logging.Int("vlan", n))
			return uint16(n), nil
		}
	}

	for v := uint16(MinID); v <= MaxID; v++ {
		if !a.taken(v) {
			a.reg[key] = v
			a.log.Debug("Generated VLAN id",
				logging.String("key", key), logging.Int("vlan", int(v)))
			return v, nil
		}
	}

	a.log.Error("No available VLAN id", logging.String("key", key))
	return 0, ErrExhausted
}

// Len returns the number of allocations held by the registry.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reg)
}
