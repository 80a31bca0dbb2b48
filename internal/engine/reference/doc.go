// Package reference is a small deterministic in-process implementation of
// engine.Engine.
//
// It covers what the wrapper needs to run end to end: a URDF subset loader,
// kinematic trees with forward kinematics, geometric Jacobians, recursive
// Newton-Euler inverse dynamics, damped least squares IK, joint motors,
// free bodies that fall and rest on static geometry, axis-aligned contact
// generation and a ray-cast camera. It is not a contact solver.
//
// Conventions:
//
//   - A body's base pose is the pose of its root link frame.
//   - Joint i moves link i; joint frames coincide with the child link frame.
//   - Jacobians and IK solutions carry one entry per joint, fixed joints
//     included (their columns and values are zero).
//   - Free bases are integrated as single rigid bodies; joint motion does
//     not react back onto a free base.
package reference
