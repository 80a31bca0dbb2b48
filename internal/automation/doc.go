// Package automation runs whole simulations without a terminal: scripted
// YAML scenarios and Monte Carlo reach trials.
package automation
