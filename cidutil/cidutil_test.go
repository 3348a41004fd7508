package cidutil

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/kpack/pack"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	return b
}

func TestSum_KnownDigests(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"sha2-256", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"ripemd-160", "abc", "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
		{"keccak-256", "", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
	}
	for _, tc := range cases {
		code, err := CodeByName(tc.name)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		mh, err := Sum(code, []byte(tc.data))
		if err != nil {
			t.Fatalf("%s: Sum: %v", tc.name, err)
		}
		if mh.ID != code || !bytes.Equal(mh.Digest, mustHex(t, tc.want)) {
			t.Fatalf("%s: got %x", tc.name, mh.Digest)
		}
		ok, err := Verify(mh, []byte(tc.data))
		if err != nil || !ok {
			t.Fatalf("%s: Verify = %v, %v", tc.name, ok, err)
		}
	}
}

func TestPackEncodingMatchesMultiformat(t *testing.T) {
	for _, code := range []uint64{multihash.SHA2_256, multihash.SHA2_512, RIPEMD160} {
		mh, err := Sum(code, []byte("kpack"))
		if err != nil {
			t.Fatalf("Sum(0x%x): %v", code, err)
		}
		mf, err := ToMultiformat(mh)
		if err != nil {
			t.Fatalf("ToMultiformat: %v", err)
		}
		if !bytes.Equal(pack.Marshal(mh), mf) {
			t.Fatalf("0x%x: pack % x, multiformat % x", code, pack.Marshal(mh), []byte(mf))
		}
		back, err := FromMultiformat(mf)
		if err != nil || !back.Equal(mh) {
			t.Fatalf("FromMultiformat: %v %v", back, err)
		}
	}
}

func TestToMultiformat_RejectsWrongDigestSize(t *testing.T) {
	_, err := ToMultiformat(pack.Multihash{ID: multihash.SHA2_256, Digest: []byte{1, 2, 3}})
	if !pack.IsKind(err, pack.KindDigestLengthMismatch) {
		t.Fatalf("got %v want DigestLengthMismatch", err)
	}
	if _, err := ToMultiformat(pack.Multihash{ID: multihash.IDENTITY, Digest: []byte("inline")}); err != nil {
		t.Fatalf("identity: %v", err)
	}
}

func TestCIDRoundTrip(t *testing.T) {
	data := []byte("hello, kpack")
	mh, err := Sum(multihash.SHA2_256, data)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	c, err := CID(cid.Raw, mh)
	if err != nil {
		t.Fatalf("CID: %v", err)
	}
	want, err := CIDv1RawSHA256CID(data)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if c != want {
		t.Fatalf("got %s want %s", c, want)
	}
	back, err := FromCID(c)
	if err != nil || !back.Equal(mh) {
		t.Fatalf("FromCID: %v %v", back, err)
	}
	if _, err := FromCID(cid.Undef); err == nil {
		t.Fatalf("FromCID(Undef) should fail")
	}
}

func TestNames(t *testing.T) {
	if _, err := CodeByName("no-such-hash"); err == nil {
		t.Fatalf("unknown name should fail")
	}
	if NameOf(RIPEMD160) != "ripemd-160" || NameOf(multihash.SHA2_256) != "sha2-256" {
		t.Fatalf("NameOf mismatch")
	}
	if NameOf(0x999999) != "0x999999" {
		t.Fatalf("NameOf unknown = %s", NameOf(0x999999))
	}
	algs := Algorithms()
	var sawSHA, sawRIPEMD bool
	for _, a := range algs {
		sawSHA = sawSHA || a == "sha2-256"
		sawRIPEMD = sawRIPEMD || a == "ripemd-160"
	}
	if !sawSHA || !sawRIPEMD {
		t.Fatalf("Algorithms() = %v", algs)
	}
}
