package physics

import "errors"

var (
	// ErrNotStarted indicates a time query or step before Start.
	ErrNotStarted = errors.New("physics: session not started")

	// ErrRealTimeStep indicates Step was called in real-time mode.
	ErrRealTimeStep = errors.New("physics: cannot step a real-time session")

	// ErrDisconnected indicates use of the session after Disconnect.
	ErrDisconnected = errors.New("physics: session disconnected")

	ErrNotFound              = errors.New("physics: file not found")
	ErrUnrecognizedExtension = errors.New("physics: unrecognized file extension")

	// ErrNotSupported marks engine queries known to return wrong data.
	ErrNotSupported = errors.New("physics: not supported by engine")

	// ErrSensorDisabled indicates a reaction force read on a joint whose
	// force/torque sensor was never enabled.
	ErrSensorDisabled = errors.New("physics: joint sensor not enabled")

	ErrNotImplemented    = errors.New("physics: not implemented")
	ErrUnknownJointType  = errors.New("physics: unknown joint type")
	ErrDimensionMismatch = errors.New("physics: dimension mismatch")

	// ErrNonFinite rejects NaN or infinite joint positions, velocities and
	// motor targets before they reach the engine.
	ErrNonFinite = errors.New("physics: non-finite value")
)
