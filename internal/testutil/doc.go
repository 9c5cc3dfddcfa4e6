// Package testutil provides fluent builders for thread state and checkpoints
// used across package tests. Builders keep test setup readable and remove the
// boilerplate of assembling nested structures inline.
package testutil
