// Package interfaces scopes facade calls by entity kind. Joints, Links and
// Dynamics hold no simulation state: every call is a fresh query, so they
// are safe to use anywhere in a step loop.
//
// Each facade depends on a narrow backend interface that *physics.Physics
// satisfies, which lets tests substitute fakes.
//
//	set := interfaces.New(p)
//	q, err := set.Joints.Positions(armJoints)
//	jac, err := set.Dynamics.ZeroDecoupledJacobian(armJoints, ee)
package interfaces
