// Package driver implements the generic, event-driven serializer and
// deserializer: a data-model bridge that a host framework's own reflection
// or code-generation layer calls into, instead of a Go-type-aware
// Marshal/Unmarshal. The host reports primitive and composite events
// (bool, seq(len), struct(name, len), ...) to Serializer and pulls them
// back out of Deserializer via the Visitor API; neither side knows
// anything about the host's concrete types.
//
// Serializer's struct/struct-variant events take a layout's full field
// list before its first emission (so later repeats of the same layout can
// reference it), but a streaming host walk only discovers one struct's
// fields as it visits that struct. Prepass is the separate first pass for
// that case: a host runs it over its data, reads each list back with
// LayoutFor, then makes the real Serializer pass. Serializer itself never
// consults a Prepass; it reuses a layout whenever the same field list is
// passed to it again.
package driver

