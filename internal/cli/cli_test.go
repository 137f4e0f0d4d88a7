package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/nulldiff/internal/log"
	"github.com/slok/nulldiff/internal/nderrors"
)

func TestFail(t *testing.T) {
	codes := nderrors.ExitCodes{Access: -3, Unknown: 2}

	var stderr bytes.Buffer
	code := Fail(&stderr, nil, codes)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())

	stderr.Reset()
	code = Fail(&stderr, nderrors.Access("a.img", assert.AnError), codes)
	assert.Equal(t, -3, code)
	assert.Contains(t, stderr.String(), "Error:")
	assert.Contains(t, stderr.String(), "a.img")
}

func TestNewLoggerDebugLevel(t *testing.T) {
	var stderr bytes.Buffer

	quiet := NewLogger(&stderr, false, false)
	quiet.Debugf("should not appear")
	assert.Empty(t, stderr.String())

	stderr.Reset()
	verbose := NewLogger(&stderr, true, false)
	verbose.Debugf("hello %s", "world")
	assert.Contains(t, stderr.String(), "hello world")
}

func TestNewLoggerNoLog(t *testing.T) {
	var stderr bytes.Buffer

	logger := NewLogger(&stderr, true, true)
	logger.Debugf("hello")
	logger.Errorf("world")
	assert.Empty(t, stderr.String())
	assert.Equal(t, log.Noop, logger)
}
