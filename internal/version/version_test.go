package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bavix/bletrack/internal/version"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev", version.GetVersion())
	assert.Equal(t, version.Version, version.GetVersion())
}

func TestGetBuildTime(t *testing.T) {
	t.Parallel()

	assert.Empty(t, version.GetBuildTime())
	assert.Equal(t, version.BuildTime, version.GetBuildTime())
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bletrack/dev", version.UserAgent())
}
