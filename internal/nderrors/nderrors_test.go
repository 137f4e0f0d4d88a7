package nderrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	codes := ExitCodes{
		Usage:        2,
		Access:       -3,
		Mapping:      -4,
		NoSharedData: -2,
		Mismatch:     -1,
		Unknown:      99,
	}

	tests := map[string]struct {
		err error
		exp int
	}{
		"nil error":        {err: nil, exp: 0},
		"usage":            {err: ErrUsage, exp: 2},
		"access":           {err: Access("a.img", errors.New("boom")), exp: -3},
		"mapping":          {err: Mapping("a.img", errors.New("boom")), exp: -4},
		"no shared data":   {err: NoSharedData(errors.New("boom")), exp: -2},
		"mismatch":         {err: Mismatch(1024), exp: -1},
		"unrelated error":  {err: errors.New("something else"), exp: 99},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, Classify(test.err, codes))
		})
	}
}

func TestConstructorsWrapSentinels(t *testing.T) {
	cause := errors.New("underlying")

	err := Access("/tmp/a", cause)
	assert.True(t, errors.Is(err, ErrAccess))
	assert.True(t, errors.Is(err, cause))
	assert.ErrorContains(t, err, "/tmp/a")

	err = Mapping("/tmp/b", cause)
	assert.True(t, errors.Is(err, ErrMapping))
	assert.ErrorContains(t, err, "/tmp/b")

	err = Mismatch(42)
	assert.True(t, errors.Is(err, ErrMismatch))
	assert.ErrorContains(t, err, "42")

	err = NoSharedData(cause)
	assert.True(t, errors.Is(err, ErrNoSharedData))
	assert.True(t, errors.Is(err, cause))
}
