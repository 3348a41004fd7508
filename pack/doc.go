// Package pack implements the canonical binary codec and its JSON mirror.
//
// Every value type implements Codec (binary) and JSONCodec (mirror tree).
// Composite shapes are provided as generic helpers over those capabilities:
//
//	sequence<T>       varint(count) ++ T*count
//	fixed array<T,N>  T*N
//	optional<T>       byte(0|1) ++ T if 1
//	variant<T0..Tn>   varint(index) ++ T_index
//	opaque<T>         T's own encoding, decoded on demand
//
// Fixed-width integers are big-endian. Multi-word integers (128, 160, 256 bit)
// are two's complement in exactly 16, 20 or 32 bytes.
//
// Decoders never panic on malformed input. Every composite decode passes
// through Depth, which bounds nesting at MaxDepth.
package pack
