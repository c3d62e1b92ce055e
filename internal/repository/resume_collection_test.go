package repository

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirescope/hirescope/internal/vectorstore"
)

func TestWhereJSON(t *testing.T) {
	t.Run("empty filter matches everything", func(t *testing.T) {
		got, err := whereJSON(nil)

		require.NoError(t, err)
		assert.Equal(t, "{}", got)
	})

	t.Run("encodes pairs as a json object", func(t *testing.T) {
		got, err := whereJSON(vectorstore.Where{"name": "Jane Doe", "uploaded_by": "alice"})

		require.NoError(t, err)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal([]byte(got), &decoded))
		assert.Equal(t, map[string]string{"name": "Jane Doe", "uploaded_by": "alice"}, decoded)
	})

	t.Run("escapes quotes", func(t *testing.T) {
		got, err := whereJSON(vectorstore.Where{"name": `O"Brien`})

		require.NoError(t, err)
		assert.Contains(t, got, `O\"Brien`)
	})
}

func TestSchemaSQL(t *testing.T) {
	assert.Contains(t, schemaSQL, "halfvec(%d)")
	assert.Contains(t, schemaSQL, "halfvec_cosine_ops")
	assert.Contains(t, schemaSQL, "PRIMARY KEY (collection, id)")
	assert.Equal(t, 1, strings.Count(schemaSQL, "%d"))
}
