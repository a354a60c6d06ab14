package orchestrator

import (
	"errors"
	"sync"
	"testing"

	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/virtualizer"
)

func testDocument(id string) *virtualizer.Virtualizer {
	v := virtualizer.New(id, "base view")
	n := virtualizer.NewNode("BB1")
	n.Type = strPtr("BiSBiS")
	n.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))
	v.AddNode(n)
	return v
}

func strPtr(s string) *string { return &s }

func TestSnapshotSaveLoad(t *testing.T) {
	s := NewSnapshotStore(logging.NewNopLogger())
	if err := s.Save("dom1", testDocument("topo1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load("dom1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.ID != "topo1" {
		t.Errorf("document id = %q", got.ID)
	}
	n := got.Node("BB1")
	if n == nil || n.Port("1") == nil {
		t.Fatalf("document structure lost: %v", n)
	}

	// Mutating the loaded copy must not leak into the baseline.
	n.RemovePort("1")
	again, err := s.Load("dom1")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again.Node("BB1").Port("1") == nil {
		t.Error("stored baseline was mutated through a loaded copy")
	}
}

func TestSnapshotMissingScope(t *testing.T) {
	s := NewSnapshotStore(nil)
	if _, err := s.Load("nope"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
	if _, ok := s.StoredAt("nope"); ok {
		t.Error("StoredAt must report a missing scope")
	}
	if s.Delete("nope") {
		t.Error("Delete must report a missing scope")
	}
}

func TestSnapshotReplaceAndDelete(t *testing.T) {
	s := NewSnapshotStore(nil)
	if err := s.Save("dom1", testDocument("v1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("dom1", testDocument("v2")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load("dom1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.ID != "v2" {
		t.Errorf("replacement lost: id = %q", got.ID)
	}

	if !s.Delete("dom1") {
		t.Error("Delete must succeed for a stored scope")
	}
	if _, err := s.Load("dom1"); err == nil {
		t.Error("deleted scope must not load")
	}
}

func TestSnapshotScopes(t *testing.T) {
	s := NewSnapshotStore(nil)
	for _, scope := range []string{"b", "a", "c"} {
		if err := s.Save(scope, testDocument(scope)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	got := s.Scopes()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Scopes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scopes[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSnapshotConcurrentAccess(t *testing.T) {
	s := NewSnapshotStore(nil)
	if err := s.Save("dom1", testDocument("topo1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Save("dom1", testDocument("topo1"))
		}()
		go func() {
			defer wg.Done()
			if _, err := s.Load("dom1"); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestNewRequestEnvelope(t *testing.T) {
	doc := testDocument("req1")
	r := NewRequest("dom1", doc, true)
	if r.ID.String() == "" || r.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Errorf("correlation id not generated: %v", r.ID)
	}
	if r.Scope != "dom1" || !r.Diff || r.Document != doc {
		t.Errorf("envelope fields: %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("creation time not set")
	}

	other := NewRequest("dom1", doc, false)
	if other.ID == r.ID {
		t.Error("correlation ids must be unique per request")
	}
}
