// Package term draws a physics scene as braille wireframes in the
// terminal. [Scene] is a render backend; pair it with a render.Adapter and
// a [Camera] built from the debug visualizer settings.
package term
