package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/sw", Normalize("/SW@wordbot"))
	assert.Equal(t, "/help", Normalize("help"))
	assert.Equal(t, "/day3", Normalize("/day3"))
	assert.Equal(t, "", Normalize("@wordbot"))
	assert.Equal(t, "", Normalize(""))
}
