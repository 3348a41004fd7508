// Package thunk holds the closed table of operation identifiers that the
// virtual machine dispatches on.
//
// The identifiers are fixed constants shared with existing chains and
// contracts; they are listed in the table rather than computed. The table
// is built once at package initialization and is read-only afterwards, so
// lookups need no locking.
package thunk

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/multiformats/go-multihash"

	"xdao.co/kpack/cidutil"
	"xdao.co/kpack/pack"
)

// Name is an operation name.
type Name string

const (
	Prints                        Name = "prints"
	VerifyBlockHeader             Name = "verify_block_header"
	ApplyBlock                    Name = "apply_block"
	ApplyTransaction              Name = "apply_transaction"
	ApplyReservedOperation        Name = "apply_reserved_operation"
	ApplyUploadContractOperation  Name = "apply_upload_contract_operation"
	ApplyExecuteContractOperation Name = "apply_execute_contract_operation"
	ApplySetSystemCallOperation   Name = "apply_set_system_call_operation"
	DBPutObject                   Name = "db_put_object"
	DBGetObject                   Name = "db_get_object"
	DBGetNextObject               Name = "db_get_next_object"
	DBGetPrevObject               Name = "db_get_prev_object"
	ExecuteContract               Name = "execute_contract"
	GetContractArgsSize           Name = "get_contract_args_size"
	GetContractArgs               Name = "get_contract_args"
	SetContractReturn             Name = "set_contract_return"
	ExitContract                  Name = "exit_contract"
	GetHeadInfo                   Name = "get_head_info"
	Hash                          Name = "hash"
	VerifyBlockSig                Name = "verify_block_sig"
	VerifyMerkleRoot              Name = "verify_merkle_root"
)

// ID is a 32-bit operation identifier. It encodes as a big-endian uint32.
type ID uint32

func (id ID) String() string { return fmt.Sprintf("0x%08x", uint32(id)) }

func (id ID) EncodePack(w *pack.Writer) { pack.Uint32(id).EncodePack(w) }

func (id *ID) DecodePack(r *pack.Reader, d pack.Depth) error {
	return (*pack.Uint32)(id).DecodePack(r, d)
}

func (id ID) EncodeJSON() any { return pack.Uint32(id).EncodeJSON() }

func (id *ID) DecodeJSON(node any, d pack.Depth) error {
	return (*pack.Uint32)(id).DecodeJSON(node, d)
}

// Entry is one row of the table.
type Entry struct {
	Name Name
	ID   ID
}

var entries = []Entry{
	{Prints, 0x8f6df54d},
	{VerifyBlockHeader, 0x8d425aac},
	{ApplyBlock, 0x8d6d31a8},
	{ApplyTransaction, 0x8981b0df},
	{ApplyReservedOperation, 0x8b3c14f6},
	{ApplyUploadContractOperation, 0x8882a55e},
	{ApplyExecuteContractOperation, 0x85e882eb},
	{ApplySetSystemCallOperation, 0x86f92c8c},
	{DBPutObject, 0x82038de5},
	{DBGetObject, 0x8862a0d8},
	{DBGetNextObject, 0x86e45047},
	{DBGetPrevObject, 0x8d57e8fd},
	{ExecuteContract, 0x8a43fe83},
	{GetContractArgsSize, 0x83378e86},
	{GetContractArgs, 0x8e189d86},
	{SetContractReturn, 0x86b86275},
	{ExitContract, 0x81f61f9f},
	{GetHeadInfo, 0x89df34c4},
	{Hash, 0x8aaaf547},
	{VerifyBlockSig, 0x89254037},
	{VerifyMerkleRoot, 0x8ed9ddcb},
}

type table struct {
	byName map[Name]ID
	byID   map[ID]Name
	sorted []Entry
}

var tbl = build(entries)

func build(es []Entry) *table {
	t := &table{
		byName: make(map[Name]ID, len(es)),
		byID:   make(map[ID]Name, len(es)),
	}
	for _, e := range es {
		if e.ID&0x80000000 == 0 {
			panic(fmt.Sprintf("thunk: %s has high bit clear in %s", e.Name, e.ID))
		}
		if other, dup := t.byID[e.ID]; dup {
			panic(fmt.Sprintf("thunk: %s and %s share %s", other, e.Name, e.ID))
		}
		if _, dup := t.byName[e.Name]; dup {
			panic(fmt.Sprintf("thunk: %s listed twice", e.Name))
		}
		t.byName[e.Name] = e.ID
		t.byID[e.ID] = e.Name
		t.sorted = append(t.sorted, e)
	}
	sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i].Name < t.sorted[j].Name })
	return t
}

// Derive computes an identifier for a name outside the table:
// 0x80000000 | the first four bytes (big-endian) of the sha2-256 digest of
// the name. Table entries do not follow this rule.
func Derive(name string) ID {
	mh, err := cidutil.Sum(multihash.SHA2_256, []byte(name))
	if err != nil {
		// sha2-256 is always registered.
		panic(err)
	}
	return ID(binary.BigEndian.Uint32(mh.Digest[:4]) | 0x80000000)
}

// ID returns the identifier of a table entry. It panics for names outside
// the table; use Lookup for untrusted input.
func (n Name) ID() ID {
	id, ok := tbl.byName[n]
	if !ok {
		panic("thunk: unknown operation " + string(n))
	}
	return id
}

// Lookup returns the identifier for name if it is in the table.
func Lookup(name string) (ID, bool) {
	id, ok := tbl.byName[Name(name)]
	return id, ok
}

// NameOf returns the operation name for id if it is in the table.
func NameOf(id ID) (Name, bool) {
	n, ok := tbl.byID[id]
	return n, ok
}

// Known reports whether id names an operation in the table.
func Known(id ID) bool {
	_, ok := tbl.byID[id]
	return ok
}

// All returns the table ordered by name. The slice is a copy.
func All() []Entry {
	return append([]Entry(nil), tbl.sorted...)
}
