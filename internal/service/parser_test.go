package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTagEntries_ArrayWithSurroundingProse(t *testing.T) {
	reply := "Sure! Here are the trending tags:\n```json\n" +
		`[{"name":"Go","count":55,"category":"programming"},{"name":"Redis","count":12,"category":"database"}]` +
		"\n```\nHope this helps."

	entries, skipped, err := ExtractTagEntries(reply)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, entries, 2)
	assert.Equal(t, "Go", entries[0].Name)
	assert.Equal(t, 55, entries[0].Count)
	assert.Equal(t, "programming", entries[0].Category)
	assert.Equal(t, "Redis", entries[1].Name)
}

func TestExtractTagEntries_ObjectWrapperFallback(t *testing.T) {
	reply := `{"tags":[{"name":"Docker","count":30,"category":"devops"}]}`

	entries, skipped, err := ExtractTagEntries(reply)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, entries, 1)
	assert.Equal(t, "Docker", entries[0].Name)
}

func TestExtractTagEntries_Defaults(t *testing.T) {
	reply := `[{"name":"Vim"},{"name":"Kubernetes","count":-3,"category":"  "}]`

	entries, skipped, err := ExtractTagEntries(reply)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, entries, 2)

	// count缺失或非正数取1，category缺失取general
	assert.Equal(t, 1, entries[0].Count)
	assert.Equal(t, "general", entries[0].Category)
	assert.Equal(t, 1, entries[1].Count)
	assert.Equal(t, "general", entries[1].Category)
}

func TestExtractTagEntries_SkipsNamelessEntries(t *testing.T) {
	reply := `[{"name":"Go","count":5},{"count":9,"category":"tools"},{"name":"  "}]`

	entries, skipped, err := ExtractTagEntries(reply)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, entries, 1)
	assert.Equal(t, "Go", entries[0].Name)
}

func TestExtractTagEntries_NoJSON(t *testing.T) {
	_, _, err := ExtractTagEntries("I could not generate any tags today, sorry.")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Snippet, "I could not")
}

func TestExtractTagEntries_MalformedJSON(t *testing.T) {
	_, _, err := ExtractTagEntries(`[{"name": "Go", "count": }]`)
	require.Error(t, err)

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestExtractTagEntries_EmptyArray(t *testing.T) {
	_, _, err := ExtractTagEntries(`[]`)
	require.Error(t, err)
}
