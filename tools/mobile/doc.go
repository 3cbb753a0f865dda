// Package mobile holds the device action tools available to the executor.
//
// Every tool performs exactly one transport operation and reports through its
// tool.Wrapper, so each answer carries a success or error status.
package mobile
