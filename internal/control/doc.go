// Package control provides arm controllers for the [sim] loop.
//
// Position controllers command joint targets through the engine motors:
//
//   - [Hold]: keep a fixed configuration
//   - [IKReach]: solve IK once and move to the end-effector target
//   - [JointTrajectory]: sinusoidal joint sweep
//   - [Manual]: jog offsets from the live view
//
// Torque controllers compute joint torques directly:
//
//   - [PID]: per-joint PID loop
//   - [LQR]: linear state feedback over [q; qd]
//
// # Usage
//
//	ctrl, err := control.New("pid", arm, cfg.ControllerParams)
//	s := sim.New(w, arm, ctrl)
//
// Controllers implementing [Tunable] support live tuning.
package control
