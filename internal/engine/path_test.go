package engine

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoragePath_Deterministic(t *testing.T) {
	require.Equal(t, StoragePath("/tmp", "octocat"), StoragePath("/tmp", "octocat"))
}

func TestStoragePath_DistinctIdentities(t *testing.T) {
	seen := map[string]string{}
	for _, identity := range []string{"octocat", "Octocat", "octocat ", "hubot", "a", "b"} {
		path := StoragePath("/tmp", identity)
		prev, dup := seen[path]
		require.False(t, dup, "identities %q and %q collide", prev, identity)
		seen[path] = identity
	}
}

func TestStoragePath_Format(t *testing.T) {
	path := StoragePath("/var/data", "octocat")
	require.Equal(t, "/var/data", filepath.Dir(path))
	require.Regexp(t, regexp.MustCompile(`^duckdb_[0-9a-f]{16}\.db$`), filepath.Base(path))
}

func TestStoragePath_NoIdentityLeak(t *testing.T) {
	require.NotContains(t, StoragePath("/tmp", "octocat"), "octocat")
}
