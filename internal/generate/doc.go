// Package generate runs a complete site generation.
//
// A run is a fixed sequence of states:
//
//	Validating → CopyingResources → RenderingLanguage[0..n] → (VerifyingLinks) → (WritingManifest) → Done
//
// Any failure moves the run to Failed and aborts the remaining states. Output written
// before the failure is left in place. Every run starts from scratch; there is no
// incremental mode.
package generate
