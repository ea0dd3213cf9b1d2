// Package value implements the nch data model and the Value codec built
// directly on it.
//
// Value is a self-describing tree: every node carries its own Kind, so a
// Value can be built, inspected, and compared without a schema. Encoder
// walks a Value depth-first and writes its wire form, interning Symbol text
// and Record field-name lists into a per-message symbol table as it goes;
// Decoder walks the wire form back into a Value tree, resolving Ref headers
// against the same table built up on the way in.
//
// The top-level nch package's Marshal/Unmarshal are thin wrappers over this
// package's Encoder and Decoder. Callers bridging a host framework's own
// typed data model use the driver package's event-driven
// Serializer/Deserializer instead, which bypass the Value tree. This
// package is for callers that want the tree itself: building it
// dynamically, inspecting an unknown message, or re-encoding a modified
// tree.
package value
