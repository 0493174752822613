// Package verify implements the golden-output verifier.
//
// A table verification is an explicit two-stage pipeline:
//
//	WriteActual  serializes the produced table to the actual path
//	Reload       reads that file back through the same codec
//
// The reloaded table is compared with the expected fixture decoded by the
// same codec, so precision and type inference lost in the text format are
// lost identically on both sides. Floating-point cells are therefore equal
// only when their serialized text parses to the same value; there is no
// epsilon.
//
// Binary artifacts (rendered images) are compared byte for byte with no
// normalization.
//
// The verifier performs blocking local file I/O and holds no locks. Callers
// running verifications in parallel must give each one its own actual path.
package verify
