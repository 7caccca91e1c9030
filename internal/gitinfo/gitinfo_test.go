package gitinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchOutsideRepository(t *testing.T) {
	assert.Equal(t, "", Branch(t.TempDir()))
}

func TestBuildPrefixDropsEmptySegments(t *testing.T) {
	dir := t.TempDir() // not a repository, so the branch segment is empty
	prefix := BuildPrefix("myproject", dir)
	assert.NotEmpty(t, prefix)
	assert.Equal(t, "myproject", prefix[0])
	for _, part := range prefix {
		assert.NotEmpty(t, part)
	}

	anonymous := BuildPrefix("", dir)
	for _, part := range anonymous {
		assert.NotEmpty(t, part)
	}
}
