package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	secret := "da02e221bc331c9875c5e1299fa8d765"
	sig, err := ComputeHmac256("foo@gmail.com", secret)
	require.NoError(t, err)

	ok, err := Verify("foo@gmail.com", sig, secret)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("bar@gmail.com", sig, secret)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Verify("foo@gmail.com", sig, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}
