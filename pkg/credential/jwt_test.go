package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corsair-io/corsair/pkg/credential"
)

func TestSupportsProtocolVersion(t *testing.T) {
	ok, err := credential.SupportsProtocolVersion("2.1", "2.1")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = credential.SupportsProtocolVersion("2.1", "2.4")
	assert.NoError(t, err)
	assert.True(t, ok, "newer verifier minor should still accept an older marque")

	ok, err = credential.SupportsProtocolVersion("2.1", "1.9")
	assert.NoError(t, err)
	assert.False(t, ok, "older major verifier must reject")

	_, err = credential.SupportsProtocolVersion("not-a-version", "2.1")
	assert.Error(t, err)
}
