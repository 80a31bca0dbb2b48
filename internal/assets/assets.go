// Package assets bundles the robot and scene descriptions used by the
// built-in presets and the default scene.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	TwoLink = "two_link.urdf"
	Panda   = "panda.urdf"
	Plane   = "plane.urdf"
	Table   = "table.urdf"
	Cube    = "cube.obj"
)

//go:embed data/*
var data embed.FS

// FS exposes the bundled files at its root.
func FS() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Extract writes every bundled file into dir, creating it if needed, and
// returns dir.
func Extract(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	src := FS()
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		b, err := fs.ReadFile(src, e.Name())
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), b, 0o644); err != nil {
			return "", fmt.Errorf("extract %s: %w", e.Name(), err)
		}
	}
	return dir, nil
}
