package storage_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/kpack/storage"
	"xdao.co/kpack/storage/memcas"
	"xdao.co/kpack/storage/testkit"
)

func TestKeyAndVerify(t *testing.T) {
	data := []byte("abc")
	id, err := storage.Key(storage.DefaultHash, data)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if id.Prefix().Codec != cid.Raw || id.Version() != 1 {
		t.Fatalf("unexpected prefix: %+v", id.Prefix())
	}
	if err := storage.Verify(id, data); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if err := storage.Verify(id, []byte("abd")); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Verify tampered: got %v want ErrCIDMismatch", err)
	}
	if err := storage.Verify(cid.Undef, data); !errors.Is(err, storage.ErrInvalidCID) {
		t.Fatalf("Verify undef: got %v want ErrInvalidCID", err)
	}

	other, err := storage.Key(multihash.SHA2_512, data)
	if err != nil {
		t.Fatalf("Key(sha2-512) failed: %v", err)
	}
	if other == id {
		t.Fatalf("different algorithms produced the same id")
	}
	if err := storage.Verify(other, data); err != nil {
		t.Fatalf("Verify(sha2-512) failed: %v", err)
	}
}

func TestErrors_NameTheID(t *testing.T) {
	id, err := storage.Key(storage.DefaultHash, []byte("missing"))
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	backends := map[string]storage.CAS{
		"memcas": memcas.New(),
		"multi":  storage.MultiCAS{Adapters: []storage.CAS{memcas.New(), memcas.New()}},
	}
	for name, cas := range backends {
		_, err := cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("%s: got %v want ErrNotFound", name, err)
		}
		if !strings.Contains(err.Error(), id.String()) {
			t.Fatalf("%s: error %q does not name %s", name, err, id)
		}
	}

	err = storage.Verify(id, []byte("other"))
	if !errors.Is(err, storage.ErrCIDMismatch) || !strings.Contains(err.Error(), id.String()) {
		t.Fatalf("Verify: got %v", err)
	}
	if storage.IsNotFound(err) {
		t.Fatalf("mismatch reported as not found")
	}
}

func TestMultiCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.MultiCAS{Adapters: []storage.CAS{memcas.New(), memcas.New()}}
	})
}

func TestMultiCAS_ReadsThrough(t *testing.T) {
	front, back := memcas.New(), memcas.New()
	id, err := back.Put([]byte("archived"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	m := storage.MultiCAS{Adapters: []storage.CAS{front, back}}
	if !m.Has(id) {
		t.Fatalf("Has: record in second adapter not found")
	}
	got, err := m.Get(id)
	if err != nil || string(got) != "archived" {
		t.Fatalf("Get: got %q, %v", got, err)
	}

	if _, err := m.Put([]byte("fresh")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if front.Len() != 1 || back.Len() != 1 {
		t.Fatalf("Put should write only the first adapter: front=%d back=%d", front.Len(), back.Len())
	}

	if _, err := (storage.MultiCAS{}).Put([]byte("x")); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("empty MultiCAS Put: got %v want ErrNoBackends", err)
	}
}

func TestReplicatingCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.ReplicatingCAS{Backends: []storage.NamedCAS{
			{Name: "a", CAS: memcas.New()},
			{Name: "b", CAS: memcas.New()},
		}}
	})
}

func TestReplicatingCAS_PutAll(t *testing.T) {
	a, b := memcas.New(), memcas.New()
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}

	id, ids, err := r.PutAll([]byte("both"))
	if err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}
	if len(ids) != 2 || ids["a"] != id || ids["b"] != id {
		t.Fatalf("PutAll ids: %v", ids)
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("record not replicated")
	}
}

func TestReplicatingCAS_HashDisagreement(t *testing.T) {
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "sha2", CAS: memcas.New()},
		{Name: "sha3", CAS: memcas.NewWithHash(multihash.SHA3_256)},
	}}
	if _, err := r.Put([]byte("x")); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Put: got %v want ErrCIDMismatch", err)
	}
	if _, err := (storage.ReplicatingCAS{}).Put([]byte("x")); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("empty ReplicatingCAS Put: got %v want ErrNoBackends", err)
	}
}
