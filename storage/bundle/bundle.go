// Package bundle moves stored objects between stores as a deterministic TAR
// archive.
//
// Layout:
//
//	objects/<cid>   one entry per object, bytes exactly as stored
//	index.kpack     optional Index record in canonical binary form
package bundle

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/kpack/pack"
	"xdao.co/kpack/storage"
)

// FormatVersion is the current Index schema version.
const FormatVersion = 1

const (
	objectsDir = "objects/"
	indexName  = "index.kpack"
)

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names to ids.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.kpack is written.
	IncludeIndex bool
}

// Export writes a TAR bundle holding the objects for ids.
//
// The bundle bytes are deterministic: entries are ordered by id string and
// TAR headers are normalized. Every object is verified against its id
// before it is written.
func Export(w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return errors.New("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	keys := make([]string, 0, len(uniq))
	for s := range uniq {
		keys = append(keys, s)
	}
	sort.Strings(keys)

	tw := tar.NewWriter(w)
	idx := Index{Version: FormatVersion}
	for _, s := range keys {
		id := uniq[s]
		b, err := cas.Get(id)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: %s: %w", s, err)
		}
		if err := storage.Verify(id, b); err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: %s: %w", s, err)
		}
		if err := writeFile(tw, objectsDir+s, b); err != nil {
			_ = tw.Close()
			return err
		}
		idx.Objects = append(idx.Objects, Entry{CID: pack.String(s), Size: pack.UnsignedInt(len(b))})
	}

	if opts.IncludeIndex {
		names := make([]string, 0, len(opts.Labels))
		for k := range opts.Labels {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			v := opts.Labels[k]
			if k == "" {
				_ = tw.Close()
				return errors.New("bundle: empty label name")
			}
			if !v.Defined() {
				_ = tw.Close()
				return storage.ErrInvalidCID
			}
			idx.Labels = append(idx.Labels, Label{Name: pack.String(k), CID: pack.String(v.String())})
		}
		if err := writeFile(tw, indexName, pack.Marshal(idx)); err != nil {
			_ = tw.Close()
			return err
		}
	}

	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Import reads a bundle from r into cas and returns its index, or nil when
// the bundle has none.
func Import(r io.Reader, cas storage.CAS) (*Index, error) {
	return ImportWithOptions(r, cas, ImportOptions{})
}

// ImportWithOptions is Import with options.
//
// Each object must match the id in its entry name, and cas must assign it
// the same id.
func ImportWithOptions(r io.Reader, cas storage.CAS, opts ImportOptions) (*Index, error) {
	if cas == nil {
		return nil, errors.New("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var idx *Index

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return idx, nil
		}
		if err != nil {
			return nil, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return nil, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == indexName {
			b, err := io.ReadAll(tr)
			if err != nil {
				return nil, err
			}
			var got Index
			if err := pack.UnmarshalExact(b, &got); err != nil {
				return nil, fmt.Errorf("bundle: index: %w", err)
			}
			idx = &got
			continue
		}

		if !strings.HasPrefix(name, objectsDir) {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return nil, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		key := strings.TrimPrefix(name, objectsDir)
		id, err := cid.Decode(key)
		if err != nil || !id.Defined() {
			return nil, storage.ErrInvalidCID
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		if err := storage.Verify(id, payload); err != nil {
			return nil, err
		}

		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("bundle: duplicate object entry: %s", key)
		}
		seen[key] = struct{}{}

		putID, err := cas.Put(payload)
		if err != nil {
			return nil, err
		}
		if putID != id {
			return nil, storage.ErrCIDMismatch
		}
	}
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
