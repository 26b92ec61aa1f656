package idnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"1-2", "1:2", "abc-def-ghi", "", "1:2:3"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize not idempotent for %q", in)
	}
}

func TestNormalizeReplacesDash(t *testing.T) {
	assert.Equal(t, "1:2", Normalize("1-2"))
	assert.Equal(t, "1:2:3", Normalize("1-2-3"))
}

func TestFromURL(t *testing.T) {
	fileKey, nodeID, ok := FromURL("https://design.example.com/file/ABC123/My-File?node-id=1-2")
	assert.True(t, ok)
	assert.Equal(t, "ABC123", fileKey)
	assert.Equal(t, "1:2", nodeID)
}

func TestResolveExplicitWins(t *testing.T) {
	fileKey, nodeID, ok := Resolve("F1", "1-2", "https://design.example.com/file/OTHER/x?node-id=9-9")
	assert.True(t, ok)
	assert.Equal(t, "F1", fileKey)
	assert.Equal(t, "1:2", nodeID)
}

func TestResolveFallsBackToURL(t *testing.T) {
	fileKey, nodeID, ok := Resolve("", "", "https://design.example.com/file/ABC123/x?node-id=1-2")
	assert.True(t, ok)
	assert.Equal(t, "ABC123", fileKey)
	assert.Equal(t, "1:2", nodeID)
}
