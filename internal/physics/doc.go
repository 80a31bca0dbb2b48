// Package physics is the facade over one simulation session.
//
// A [Physics] value is the only thing in the module that talks to an
// [engine.Engine]. It translates semantic calls (body poses, joint limits,
// control targets, IK requests) into narrow engine operations keyed by ids,
// and it owns the session lifecycle:
//
//   - [Physics.Start] picks fixed-step or real-time mode.
//   - [Physics.Step] advances one fixed step and counts it.
//   - [Physics.Disconnect] ends the session; every later call fails with
//     [ErrDisconnected].
//
// Identity follows the engine: bodies are [BodyID]s, links are
// [engine.EntityRef] values with [engine.BaseLink] for the base, and joints
// are [JointID] pairs. All angles are radians.
//
//	p := physics.New(reference.New(), physics.WithTimeStep(1.0/240))
//	if err := p.Start(); err != nil {
//	    return err
//	}
//	id, err := p.AddBody("assets/arm.urdf", spatial.IdentityPose(), physics.WithStatic())
//
// A Physics is not safe for concurrent use. Confine it to one control loop.
package physics
