package tool_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/tool"
	"github.com/arcflow/substrate/internal/valueobjects"
)

const sampleManifest = `
name: weather_lookup
version: 1.0.0
description: fetch current weather
category: data
tags: weather,external
parameters:
  - name: city
    type: string
    required: true
  - name: units
    type: string
    required: false
    default: celsius
entry:
  type: http
  url: https://example.test/weather
  method: GET
`

func TestParseManifest_HappyPath(t *testing.T) {
	toolVal, err := tool.ParseManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, "weather_lookup", toolVal.Name)
	assert.Equal(t, valueobjects.CategoryData, toolVal.Category)
	assert.Equal(t, valueobjects.ImplHTTP, toolVal.ImplKind)
	assert.Equal(t, "https://example.test/weather", toolVal.ImplConfig["url"])
	require.Len(t, toolVal.Parameters, 2)
	assert.Equal(t, "city", toolVal.Parameters[0].Name)
	assert.True(t, toolVal.Parameters[0].Required)
	assert.Equal(t, "celsius", toolVal.Parameters[1].Default)
}

func TestParseManifest_UnknownTopLevelKey(t *testing.T) {
	_, err := tool.ParseManifest(strings.NewReader("name: x\nbogus: 1\n"))
	require.Error(t, err)
}
