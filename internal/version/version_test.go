package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildVars(t *testing.T, v, commit, built string) {
	t.Helper()
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = v, commit, built
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime
	})
}

func TestReleaseBuild(t *testing.T) {
	withBuildVars(t, "v1.2.3", "0123456789abcdef", "2024-03-15T14:30:45Z")

	info := GetBuildInfo()
	assert.Equal(t, Name, info.Name)
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC), info.BuildTime)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")

	assert.True(t, IsRelease())
	assert.Equal(t, "v1.2.3 (0123456)", GetShortVersion())

	detailed := GetDetailedVersion()
	assert.True(t, strings.HasPrefix(detailed, "time-mcp v1.2.3"))
	assert.Contains(t, detailed, "Commit: 0123456789abcdef")
	assert.Contains(t, detailed, "Built: 2024-03-15T14:30:45Z")
}

func TestDevBuild(t *testing.T) {
	withBuildVars(t, "dev", "unknown", "unknown")

	assert.False(t, IsRelease())
	assert.True(t, strings.HasPrefix(GetVersion(), "dev") || strings.HasPrefix(GetVersion(), "v"))
	assert.NotContains(t, GetDetailedVersion(), "Built: 0001")
}
