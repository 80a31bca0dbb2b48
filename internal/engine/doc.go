// Package engine defines the boundary to the rigid-body solver.
//
// The solver owns contact resolution, constraint solving and time
// integration; this package only describes what the wrapper consumes from
// it. Every operation is narrow and keyed by explicit ids, and no handle
// returned by an [Engine] outlives the call that produced it.
//
// Identity rules:
//
//   - [BodyID] values are non-negative and unique for the session until the
//     body is removed.
//   - Links and joints are indexed 0..N-1 per body; [BaseLink] (-1) names
//     the body's base frame.
//   - Joint i connects link i to its parent, so a body has exactly as many
//     joints as non-base links.
//
// The reference implementation lives in package reference.
package engine
