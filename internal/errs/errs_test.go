package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{404, KindNotFound},
		{429, KindRateLimited},
		{500, KindNetwork},
		{503, KindNetwork},
		{418, KindUnknown},
	}
	for _, c := range cases {
		err := FromHTTPStatus("GetNode", c.status, "body")
		assert.Equal(t, c.want, err.Kind, "status %d", c.status)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, KindNetwork.Retryable())
	assert.True(t, KindRateLimited.Retryable())
	assert.False(t, KindAuth.Retryable())
	assert.False(t, KindNotFound.Retryable())
	assert.False(t, KindParse.Retryable())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(KindNetwork, "fetch", cause)
	require.ErrorIs(t, err, cause)
}

func TestAsDSLError(t *testing.T) {
	err := New(KindNotFound, "GetNode", errors.New(`node "1:2" not found`))
	got := AsDSLError(err)
	assert.Contains(t, got, `"error":`)
	assert.Contains(t, got, `not found`)
}
