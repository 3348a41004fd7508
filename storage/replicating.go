package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// NamedCAS tags a store with a stable name for reporting.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes every record to all backends and reads from the
// first that has it.
//
// All backends must agree on the id of a write; otherwise ErrCIDMismatch is
// returned. Backends configured with different hash algorithms therefore
// cannot be replicated together.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = ReplicatingCAS{}

// PutAll writes bytes to every backend and returns the agreed id together
// with the id each backend reported.
func (r ReplicatingCAS) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}
	out := make(map[string]cid.Cid, len(r.Backends))
	var want cid.Cid
	for i, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(bytes)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if i == 0 {
			want = got
			continue
		}
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(bytes []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(bytes)
	return id, err
}

func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, NotFound(id)
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}
