package bundle_test

import (
	"archive/tar"
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/kpack/storage"
	"xdao.co/kpack/storage/bundle"
	"xdao.co/kpack/storage/localfs"
	"xdao.co/kpack/storage/memcas"
)

func TestBundle_ExportIsDeterministic(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	id1, err := cas.Put([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := cas.Put([]byte("world"))
	if err != nil {
		t.Fatal(err)
	}

	opts := bundle.ExportOptions{IncludeIndex: true, Labels: map[string]cid.Cid{"greeting": id1}}
	var outA bytes.Buffer
	if err := bundle.Export(&outA, cas, []cid.Cid{id2, id1}, opts); err != nil {
		t.Fatal(err)
	}
	var outB bytes.Buffer
	if err := bundle.Export(&outB, cas, []cid.Cid{id1, id2, id1}, opts); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	src := memcas.NewWithHash(multihash.SHA3_256)
	payload := []byte("payload")
	id, err := src.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	opts := bundle.ExportOptions{IncludeIndex: true, Labels: map[string]cid.Cid{"head": id}}
	if err := bundle.Export(&buf, src, []cid.Cid{id}, opts); err != nil {
		t.Fatal(err)
	}

	dst, err := localfs.New(t.TempDir(), localfs.WithHash(multihash.SHA3_256))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := bundle.Import(bytes.NewReader(buf.Bytes()), dst)
	if err != nil {
		t.Fatal(err)
	}

	got, err := dst.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}

	if idx == nil {
		t.Fatalf("expected index")
	}
	if idx.Version != bundle.FormatVersion || len(idx.Objects) != 1 || len(idx.Labels) != 1 {
		t.Fatalf("index: %+v", idx)
	}
	if string(idx.Objects[0].CID) != id.String() || idx.Objects[0].Size != 7 {
		t.Fatalf("index entry: %+v", idx.Objects[0])
	}
	if string(idx.Labels[0].Name) != "head" {
		t.Fatalf("index label: %+v", idx.Labels[0])
	}
}

func TestBundle_ImportIntoDifferentHash(t *testing.T) {
	src := memcas.NewWithHash(multihash.SHA3_256)
	id, err := src.Put([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := bundle.Export(&buf, src, []cid.Cid{id}, bundle.ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	idx, err := bundle.Import(bytes.NewReader(buf.Bytes()), memcas.New())
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
	if idx != nil {
		t.Fatalf("no index on failure")
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := []byte("good")
	otherCID, err := storage.Key(storage.DefaultHash, []byte("other"))
	if err != nil {
		t.Fatal(err)
	}

	// Name says "otherCID" but bytes are "good" => computed CID mismatch.
	bundleBytes := makeDeterministicTar(t, "objects/"+otherCID.String(), good)

	if _, err := bundle.Import(bytes.NewReader(bundleBytes), memcas.New()); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRejectsUnknownEntries(t *testing.T) {
	bundleBytes := makeDeterministicTar(t, "notes.txt", []byte("hi"))

	if _, err := bundle.Import(bytes.NewReader(bundleBytes), memcas.New()); err == nil {
		t.Fatalf("expected error for unknown entry")
	}
	if _, err := bundle.ImportWithOptions(bytes.NewReader(bundleBytes), memcas.New(), bundle.ImportOptions{IgnoreUnknown: true}); err != nil {
		t.Fatalf("IgnoreUnknown: %v", err)
	}

	escape := makeDeterministicTar(t, "objects/../../etc/passwd", []byte("x"))
	if _, err := bundle.Import(bytes.NewReader(escape), memcas.New()); err == nil {
		t.Fatalf("expected error for path traversal")
	}
}

func TestBundle_ImportRejectsBadIndex(t *testing.T) {
	bundleBytes := makeDeterministicTar(t, "index.kpack", []byte{0x00, 0x00, 0x00})
	if _, err := bundle.Import(bytes.NewReader(bundleBytes), memcas.New()); err == nil {
		t.Fatalf("expected error for truncated index")
	}
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
