// Package storage persists simulation runs as a directory per run holding
// JSON metadata and a CSV sample table.
package storage
