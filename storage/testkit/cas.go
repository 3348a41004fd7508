// Package testkit holds behavioral checks every storage.CAS must pass.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/kpack/pack"
	"xdao.co/kpack/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests and derive ids with
// storage.DefaultHash.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, kpack storage")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := storage.Key(storage.DefaultHash, want)
		if err != nil {
			t.Fatalf("Key failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if err := storage.Verify(id, got); err != nil {
			t.Fatalf("Get returned bytes not matching requested CID: %v", err)
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := storage.Key(storage.DefaultHash, b)
		if err != nil {
			t.Fatalf("Key failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("EmptyRecord", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cas.Put(nil)
		if err != nil {
			t.Fatalf("Put(nil) failed: %v", err)
		}
		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("Get: got %d bytes want 0", len(got))
		}
	})

	t.Run("ValueRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := pack.Multihash{ID: 0x12, Digest: bytes.Repeat([]byte{0xab}, 32)}

		id, err := storage.PutValue(cas, want)
		if err != nil {
			t.Fatalf("PutValue failed: %v", err)
		}
		var got pack.Multihash
		if err := storage.GetValue(cas, id, &got); err != nil {
			t.Fatalf("GetValue failed: %v", err)
		}
		if !got.Equal(want) {
			t.Fatalf("GetValue: got %s want %s", got, want)
		}

		var tooWide pack.Uint8
		err = storage.GetValue(cas, id, &tooWide)
		if !pack.IsKind(err, pack.KindTrailingBytes) {
			t.Fatalf("GetValue into a narrower type: got %v want trailing bytes", err)
		}
	})
}
