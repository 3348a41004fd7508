// Package cidutil bridges pack.Multihash and the multiformats ecosystem:
// digest computation, multihash byte strings and CIDs.
package cidutil

import (
	"fmt"
	"hash"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	mhreg "github.com/multiformats/go-multihash/core"
	_ "github.com/multiformats/go-multihash/register/sha3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd-160 remains a deployed block id algorithm.

	"xdao.co/kpack/pack"
)

// RIPEMD160 is the multicodec code for ripemd-160.
const RIPEMD160 uint64 = 0x1053

// extraNames covers algorithms registered here that go-multihash does not name.
var extraNames = map[string]uint64{
	"ripemd-160": RIPEMD160,
}

func init() {
	mhreg.Register(RIPEMD160, func() hash.Hash { return ripemd160.New() })
}

// CodeByName resolves a multihash algorithm name such as "sha2-256".
func CodeByName(name string) (uint64, error) {
	if c, ok := multihash.Names[name]; ok {
		return c, nil
	}
	if c, ok := extraNames[name]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("cidutil: unknown hash algorithm %q", name)
}

// NameOf returns the algorithm name for code, or its hex form.
func NameOf(code uint64) string {
	if n, ok := multihash.Codes[code]; ok {
		return n
	}
	for n, c := range extraNames {
		if c == code {
			return n
		}
	}
	return fmt.Sprintf("0x%x", code)
}

// Algorithms lists the names usable with Sum, sorted.
func Algorithms() []string {
	var out []string
	for name, code := range multihash.Names {
		if _, err := mhreg.GetHasher(code); err == nil {
			out = append(out, name)
		}
	}
	for name := range extraNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Sum hashes data with the algorithm code at its default length.
func Sum(code uint64, data []byte) (pack.Multihash, error) {
	mh, err := multihash.Sum(data, code, -1)
	if err != nil {
		return pack.Multihash{}, err
	}
	return FromMultiformat(mh)
}

// Verify reports whether m is the digest of data under m's own algorithm.
func Verify(m pack.Multihash, data []byte) (bool, error) {
	got, err := Sum(m.ID, data)
	if err != nil {
		return false, err
	}
	return got.Equal(m), nil
}

// ToMultiformat returns the multihash byte string for m. For algorithms with
// a registered digest size, a digest of another size is rejected.
func ToMultiformat(m pack.Multihash) (multihash.Multihash, error) {
	if want, ok := multihash.DefaultLengths[m.ID]; ok && m.ID != multihash.IDENTITY && want != len(m.Digest) {
		return nil, &pack.Error{
			Kind:    pack.KindDigestLengthMismatch,
			RuleID:  "PACK-MH-002",
			Message: fmt.Sprintf("cidutil: %s digest has %d bytes, want %d", NameOf(m.ID), len(m.Digest), want),
		}
	}
	return multihash.Encode(m.Digest, m.ID)
}

// FromMultiformat parses a multihash byte string.
func FromMultiformat(b []byte) (pack.Multihash, error) {
	dec, err := multihash.Decode(b)
	if err != nil {
		return pack.Multihash{}, fmt.Errorf("cidutil: %w", err)
	}
	return pack.Multihash{ID: dec.Code, Digest: dec.Digest}, nil
}

// CID wraps m in a CIDv1 with the given content codec.
func CID(codec uint64, m pack.Multihash) (cid.Cid, error) {
	mh, err := ToMultiformat(m)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(codec, mh), nil
}

// FromCID extracts the multihash of c.
func FromCID(c cid.Cid) (pack.Multihash, error) {
	if !c.Defined() {
		return pack.Multihash{}, fmt.Errorf("cidutil: undefined cid")
	}
	return FromMultiformat(c.Hash())
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
