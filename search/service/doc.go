// Package service orchestrates sessions, board presets and search runs.
//
// SearchService is the single entry point used by every transport. It keeps
// the session board authoritative and hands each run a frozen clone, so a
// client may keep editing walls while a steppable run or a paced animation is
// in flight.
//
// Delivery:
//
//   - Search runs to completion and returns the result with a text rendering.
//   - Stream runs to completion and calls back once per step record.
//   - StartRun / StepRun / CancelRun expose a pull-based run owned by the
//     session and discarded after its terminal record.
//   - Compare runs all four algorithms concurrently over one snapshot.
//
// Every finished run lands in the session's bounded history and in the
// Prometheus collectors of package metrics.
package service
