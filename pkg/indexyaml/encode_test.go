package indexyaml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mergedAB = `indexes:

  - kind: A
    properties:
      - name: x

  - kind: B
    properties:
      - name: y
`

func TestEncode_BlankLineBeforeEachEntry(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "indexes:\n- kind: A\n  properties:\n  - name: x\n- kind: B\n  properties:\n  - name: y\n")

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, mergedAB, string(out))
}

func TestEncode_IsStable(t *testing.T) {
	t.Parallel()

	out, err := mustParse(t, mergedAB).Encode()
	require.NoError(t, err)
	assert.Equal(t, mergedAB, string(out))
}

func TestEncode_FlowInputBecomesBlock(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "indexes: [{kind: A, properties: [{name: x}]}, {kind: B, properties: [{name: y}]}]\n")

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, mergedAB, string(out))
}

func TestEncode_KeepsOtherKeysAndComments(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `# Datastore indexes.
indexes:
# Stories by title.
- kind: Story
  ancestor: yes
  properties:
  - name: title
    direction: desc
`)

	out, err := doc.Encode()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# Datastore indexes.")
	assert.Contains(t, text, "# Stories by title.")
	assert.Contains(t, text, "ancestor:")
	assert.Contains(t, text, "direction: desc")

	roundTrip := mustParse(t, text)
	indexes, err := roundTrip.Indexes()
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, "Story ancestor=yes(title desc)", indexes[0].String())
}

func TestEncode_OnlyIndexesEntriesAreSeparated(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "labels:\n- one\n- two\nindexes:\n- kind: A\n  properties:\n  - name: x\n")

	out, err := doc.Encode()
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "labels:\n  - one\n  - two\nindexes:\n\n  - kind: A\n"), text)
}
