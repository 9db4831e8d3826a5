package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/querychain/internal/ir"
)

type report struct {
	Title string   `json:"title" yaml:"title"`
	Query Embedded `json:"query" yaml:"query"`
}

func TestEmbeddedJSON(t *testing.T) {
	in := report{Title: "paid", Query: Embedded{orderDoc()}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"title":"paid","query":{"class":"Order","chain_methods":[{"where":["status","paid"]},{"limit":[10]}]}}`,
		string(data))

	var out report
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "paid", out.Title)
	assert.Equal(t, ir.ResourceRef("Order"), out.Query.Class)
	assert.True(t, orderDoc().Chain.Equal(out.Query.Chain))
}

func TestEmbeddedYAML(t *testing.T) {
	in := report{Title: "paid", Query: Embedded{richDoc()}}

	data, err := yaml.Marshal(in)
	require.NoError(t, err)

	var out report
	require.NoError(t, yaml.Unmarshal(data, &out), "yaml:\n%s", data)
	assert.Equal(t, "paid", out.Title)
	assert.True(t, richDoc().Chain.Equal(out.Query.Chain), "yaml:\n%s", data)
}

func TestEmbeddedLegacyMapping(t *testing.T) {
	var out report
	err := yaml.Unmarshal([]byte(`
title: legacy
query:
  class: Order
  chain_methods:
    where: [status, paid]
    limit: [10]
`), &out)
	require.NoError(t, err)
	assert.True(t, orderDoc().Chain.Equal(out.Query.Chain))
}

func TestEmbeddedNullKeepsZero(t *testing.T) {
	var out report
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","query":null}`), &out))
	assert.Equal(t, ir.ResourceRef(""), out.Query.Class)
}

func TestEmbeddedErrors(t *testing.T) {
	var out report
	err := json.Unmarshal([]byte(`{"query":{"chain_methods":[]}}`), &out)
	assert.True(t, ir.IsCode(err, ir.ErrCodeMissingField), "got %v", err)

	err = json.Unmarshal([]byte(`{"query":["Order"]}`), &out)
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformedEncoding), "got %v", err)

	err = yaml.Unmarshal([]byte("query: [Order]\n"), &out)
	assert.Error(t, err)

	_, err = json.Marshal(report{Query: Embedded{ir.Document{}}})
	assert.Error(t, err)
	_, err = yaml.Marshal(report{Query: Embedded{ir.Document{}}})
	assert.Error(t, err)
}
