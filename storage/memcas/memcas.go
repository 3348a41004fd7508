// Package memcas is an in-memory storage.CAS for tests and short-lived tools.
package memcas

import (
	"bytes"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/kpack/storage"
)

// CAS is safe for concurrent use. Stored and returned slices are copies.
type CAS struct {
	code uint64

	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

var _ storage.CAS = (*CAS)(nil)

// New returns an empty store deriving ids with storage.DefaultHash.
func New() *CAS {
	return NewWithHash(storage.DefaultHash)
}

// NewWithHash returns an empty store deriving ids with the given algorithm.
func NewWithHash(code uint64) *CAS {
	return &CAS{code: code, objects: make(map[cid.Cid][]byte)}
}

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	id, err := storage.Key(c.code, data)
	if err != nil {
		return cid.Undef, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.objects[id]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	c.objects[id] = append([]byte(nil), data...)
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	b, ok := c.objects[id]
	c.mu.RUnlock()
	if !ok {
		return nil, storage.NotFound(id)
	}
	return append([]byte(nil), b...), nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[id]
	return ok
}

// Len is the number of stored objects.
func (c *CAS) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
