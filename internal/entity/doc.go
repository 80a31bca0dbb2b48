// Package entity provides identity handles for bodies, links and joints.
//
// A handle stores only ids and the session it belongs to; every read is a
// fresh query. The one exception is Link.Mass, which is queried once and
// remembered along with any error. Joint writes go through the joint
// interface rather than the facade.
//
// Handles are not revalidated: after a body is removed or reloaded, its old
// handles address whatever now occupies those indices.
package entity
