package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

func TestRunCodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runCodes(formatText, &buf))

	for _, def := range diagnostics.Catalog() {
		assert.Contains(t, buf.String(), string(def.Code))
	}
}

func TestRunCodes_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runCodes(formatJSON, &buf))

	var defs []diagnostics.Definition
	require.NoError(t, json.Unmarshal(buf.Bytes(), &defs))
	assert.Equal(t, diagnostics.Catalog(), defs)
}
