// Package localfs is a filesystem-backed storage.CAS.
package localfs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/kpack/storage"
)

// CAS stores each record in its own read-only file, named by its id and
// sharded by the id's first two characters.
//
// It never uses the network and never depends on wall-clock time.
type CAS struct {
	root string
	code uint64
}

var _ storage.CAS = (*CAS)(nil)

// Option configures a CAS.
type Option func(*CAS)

// WithHash selects the multihash algorithm used to derive ids on Put.
// Get accepts ids of any registered algorithm.
func WithHash(code uint64) Option {
	return func(c *CAS) { c.code = code }
}

// New constructs a filesystem CAS rooted at root. The directory will be created if needed.
func New(root string, opts ...Option) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	c := &CAS{root: root, code: storage.DefaultHash}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	id, err := storage.Key(c.code, data)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := c.Get(id)
			if rerr != nil || !bytes.Equal(existing, data) {
				// An unreadable or corrupted file is never repaired in place.
				return cid.Undef, storage.ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(c.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NotFound(id)
		}
		return nil, err
	}
	if err := storage.Verify(id, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(c.pathFor(id))
	return err == nil
}

func (c *CAS) pathFor(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(c.root, s)
	}
	return filepath.Join(c.root, s[:2], s)
}
