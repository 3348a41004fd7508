package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/kpack/pack"
)

// PutValue stores the canonical encoding of v.
func PutValue(c CAS, v pack.Encoder) (cid.Cid, error) {
	return c.Put(pack.Marshal(v))
}

// GetValue loads id and decodes it into v. The stored bytes must hold
// exactly one value.
func GetValue(c CAS, id cid.Cid, v pack.Decoder) error {
	b, err := c.Get(id)
	if err != nil {
		return err
	}
	if err := pack.UnmarshalExact(b, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", id, err)
	}
	return nil
}
