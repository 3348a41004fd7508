package pack

import (
	"fmt"
	"strconv"
)

// Union describes a variant: an ordered, closed list of member types whose
// values share the interface I. Members are held as pointers (*T).
//
// Wire form: varint(index) ++ member encoding.
// JSON form: {"type": <member name>, "value": <member tree>}.
type Union[I any] struct {
	name    string
	members []UnionMember[I]
}

// UnionMember is one entry of a Union, built with Member.
type UnionMember[I any] struct {
	name  string
	match func(I) bool
	alloc func() (I, Value)
}

// Member declares *T as a member of a union over I. It panics if *T does
// not implement I.
func Member[I any, T any, PT Ptr[T]](name string) UnionMember[I] {
	if _, ok := any(PT(new(T))).(I); !ok {
		panic(fmt.Sprintf("pack: %T does not implement the union interface", (*T)(nil)))
	}
	return UnionMember[I]{
		name: name,
		match: func(v I) bool {
			p, ok := any(v).(PT)
			return ok && (*T)(p) != nil
		},
		alloc: func() (I, Value) {
			p := PT(new(T))
			return any(p).(I), p
		},
	}
}

// NewUnion builds a union. Member order fixes the wire indices.
func NewUnion[I any](name string, members ...UnionMember[I]) *Union[I] {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.name] {
			panic("pack: duplicate union member " + m.name + " in " + name)
		}
		seen[m.name] = true
	}
	return &Union[I]{name: name, members: members}
}

func (u *Union[I]) Name() string { return u.name }

func (u *Union[I]) Len() int { return len(u.members) }

// MemberName returns the name of the member at index i.
func (u *Union[I]) MemberName(i int) string { return u.members[i].name }

// Index returns the member index of v, or -1 if v is not a member value.
func (u *Union[I]) Index(v I) int {
	for i, m := range u.members {
		if m.match(v) {
			return i
		}
	}
	return -1
}

func (u *Union[I]) mustIndex(v I) int {
	i := u.Index(v)
	if i < 0 {
		panic(newError(KindPrecondition, "PACK-PRE-001", "%T is not a member of union %s", v, u.name))
	}
	return i
}

// Encode writes v. A value that is not a member (including nil) is a
// programming error and panics with a *Error of kind Precondition.
func (u *Union[I]) Encode(w *Writer, v I) {
	i := u.mustIndex(v)
	w.AppendUvarint(uint64(i))
	any(v).(Encoder).EncodePack(w)
}

// Decode reads an index and dispatches to that member's decoder.
func (u *Union[I]) Decode(r *Reader, d Depth) (I, error) {
	var zero I
	d, err := d.Enter()
	if err != nil {
		return zero, err
	}
	off := r.Offset()
	idx, err := r.ReadUvarint(64)
	if err != nil {
		return zero, err
	}
	if idx >= uint64(len(u.members)) {
		return zero, newError(KindInvalidDiscriminant, "PACK-DISC-002", "%s index %d at offset %d out of range [0,%d)", u.name, idx, off, len(u.members))
	}
	v, c := u.members[idx].alloc()
	if err := c.DecodePack(r, d); err != nil {
		return zero, err
	}
	return v, nil
}

func (u *Union[I]) EncodeJSON(v I) any {
	i := u.mustIndex(v)
	return map[string]any{
		"type":  u.members[i].name,
		"value": any(v).(JSONEncoder).EncodeJSON(),
	}
}

// DecodeJSON accepts a member name or a numeric index in "type".
func (u *Union[I]) DecodeJSON(node any, d Depth) (I, error) {
	var zero I
	d, err := d.Enter()
	if err != nil {
		return zero, err
	}
	obj, err := JSONObject(node)
	if err != nil {
		return zero, err
	}
	idx := -1
	switch t := obj["type"].(type) {
	case string:
		for i, m := range u.members {
			if m.name == t {
				idx = i
				break
			}
		}
		if idx < 0 {
			if n, perr := strconv.ParseUint(t, 10, 32); perr == nil && n < uint64(len(u.members)) {
				idx = int(n)
			}
		}
	default:
		n, err := decodeJSONUint(t, 32)
		if err == nil && n < uint64(len(u.members)) {
			idx = int(n)
		}
	}
	if idx < 0 {
		return zero, newError(KindInvalidDiscriminant, "PACK-DISC-002", "%s has no member %v", u.name, obj["type"])
	}
	v, c := u.members[idx].alloc()
	if err := c.DecodeJSON(obj["value"], d); err != nil {
		return zero, within(u.members[idx].name, err)
	}
	return v, nil
}
