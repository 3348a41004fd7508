// Package protocol defines the block and transaction types exchanged by
// nodes. Each type carries the pack binary codec and its JSON mirror.
//
// Block and transaction payloads that are signed or hashed are held in
// pack.Opaque boxes, so relaying a block never changes the bytes its id
// was computed over.
package protocol
