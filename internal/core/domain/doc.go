// Package domain defines the core business entities for Scribe.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Turn: One conversational message (user or assistant)
//   - Session: An identified, ordered sequence of Turns
//   - ExtractionRecord: Normalised OCR output for one image
//   - RawRecognition: Opaque per-image output from the recognition backend
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
