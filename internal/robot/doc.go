// Package robot binds a configured arm description to the joints and links
// of a loaded body and exposes IK, Jacobian and position control over it.
package robot
