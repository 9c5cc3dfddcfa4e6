package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidRequestf(t *testing.T) {
	err := InvalidRequestf("unknown thread %q", "t1")

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), `unknown thread "t1"`)
}

func TestTransientWrapping(t *testing.T) {
	cause := errors.New("provider timeout")
	err := Transient(cause)

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, cause)

	// Wrapping preserves transience.
	wrapped := fmt.Errorf("node failed: %w", err)
	assert.True(t, IsTransient(wrapped))

	assert.Nil(t, Transient(nil))
	assert.False(t, IsTransient(cause))
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := &PersistenceError{Op: "save", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save")
}

func TestConfigFaultError(t *testing.T) {
	err := &ConfigFaultError{Node: "route", Reason: "no satisfiable edge"}
	assert.Contains(t, err.Error(), "route")
	assert.Contains(t, err.Error(), "no satisfiable edge")
}
