package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedAssets(t *testing.T) {
	for _, name := range []string{LogoIdle, LogoActive} {
		resource, err := Logo(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(resource.Content()), "<svg")
		assert.Same(t, resource, MustLogo(name))
	}
	for _, name := range []string{IconBell, IconBellDim} {
		assert.NotEmpty(t, MustIcon(name).Content())
	}

	_, err := Logo("missing.svg")
	assert.Error(t, err)
	assert.Panics(t, func() { MustIcon("missing.svg") })
}
