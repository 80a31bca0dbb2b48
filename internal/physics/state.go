package physics

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// records are the facade's own per-joint bookkeeping, snapshotted with the
// engine state so both roll back together.
type records struct {
	sensors  map[JointID]bool
	commands map[JointID]Command
}

func (r records) clone() records {
	out := records{
		sensors:  make(map[JointID]bool, len(r.sensors)),
		commands: make(map[JointID]Command, len(r.commands)),
	}
	for j, on := range r.sensors {
		out.sensors[j] = on
	}
	for j, c := range r.commands {
		out.commands[j] = c
	}
	return out
}

func (p *Physics) SaveState() (StateID, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	id, err := p.eng.SaveState()
	if err != nil {
		return 0, err
	}
	p.snapshots[id] = records{p.sensors, p.commands}.clone()
	return id, nil
}

// RestoreState replaces the current world with the snapshot, including
// which sensors are enabled and the last command per joint. The step
// counter is left unchanged.
func (p *Physics) RestoreState(id StateID) error {
	if err := p.alive(); err != nil {
		return err
	}
	if err := p.eng.RestoreState(id); err != nil {
		return err
	}
	// A snapshot the facade did not take restores to no sensors and no
	// commands; the zero records clone to empty maps.
	r := p.snapshots[id].clone()
	p.sensors, p.commands = r.sensors, r.commands
	return nil
}

func (p *Physics) RemoveState(id StateID) error {
	if err := p.alive(); err != nil {
		return err
	}
	if err := p.eng.RemoveState(id); err != nil {
		return err
	}
	delete(p.snapshots, id)
	return nil
}

// StateDigest fingerprints every body's base pose, base velocity and joint
// state. Two sessions that evolved identically produce the same digest.
func (p *Physics) StateDigest() (uint64, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	h := xxhash.New()
	var buf [8]byte
	write := func(vs ...float64) {
		for _, v := range vs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}
	for _, id := range p.eng.Bodies() {
		write(float64(id))
		pose, err := p.eng.BasePose(id)
		if err != nil {
			return 0, err
		}
		lin, ang, err := p.eng.BaseVelocity(id)
		if err != nil {
			return 0, err
		}
		write(pose.Position.Slice()...)
		write(pose.Orientation.XYZW()...)
		write(lin.Slice()...)
		write(ang.Slice()...)
		n, err := p.eng.NumJoints(id)
		if err != nil {
			return 0, err
		}
		for j := 0; j < n; j++ {
			s, err := p.eng.JointState(id, j)
			if err != nil {
				return 0, err
			}
			write(s.Position, s.Velocity)
		}
	}
	return h.Sum64(), nil
}
