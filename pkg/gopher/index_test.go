package gopher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndexBothEntryForms(t *testing.T) {
	idx, err := ParseIndex([]byte(`
description: Welcome to the archive
entries:
  - ["Readme", "readme.txt"]
  - {label: "Pictures", selector: "pics"}
`))
	require.NoError(t, err)

	assert.Equal(t, "Welcome to the archive", idx.Description)
	assert.Equal(t, []IndexEntry{
		{Label: "Readme", Selector: "readme.txt"},
		{Label: "Pictures", Selector: "pics"},
	}, idx.Entries)
}

func TestParseIndexRejectsMalformedEntries(t *testing.T) {
	_, err := ParseIndex([]byte("entries:\n  - [\"only label\"]\n"))
	assert.Error(t, err)

	_, err = ParseIndex([]byte("entries:\n  - just a string\n"))
	assert.Error(t, err)
}
