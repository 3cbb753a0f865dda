package slogx

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAttrs(t *testing.T) {
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, "", Error(nil).Value.String())

	id := uuid.New()
	a := Stringer("run_id", id)
	assert.Equal(t, "run_id", a.Key)
	assert.Equal(t, id.String(), a.Value.String())

	assert.Equal(t, KeyLoggerName, LoggerName("executor").Key)
	assert.Equal(t, "trace-1", TraceID("trace-1").Value.String())
	assert.NotNil(t, Logger("executor"))
}
