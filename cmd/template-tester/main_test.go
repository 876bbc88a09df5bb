package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoylab/taskflow/internal/template"
)

func TestRenderAll(t *testing.T) {
	disableColors()
	var out bytes.Buffer
	err := renderAll(&out, template.NewRenderer(), []namedTemplate{
		{name: "title", source: "{{ .TaskCount }} new task(s)"},
		{name: "url", source: `{{ .BaseURL | trimSuffix "/" }}/company/{{ .CompanySlug }}`},
	}, sampleContext("https://tasks.example/"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "3 new task(s)")
	assert.Contains(t, out.String(), "https://tasks.example/company/acme")
}

func TestRenderAll_ReportsFailures(t *testing.T) {
	disableColors()
	var out bytes.Buffer
	err := renderAll(&out, template.NewRenderer(), []namedTemplate{
		{name: "ok", source: "hello"},
		{name: "broken", source: "{{ .Nope "},
	}, sampleContext(""))
	assert.EqualError(t, err, "1 of 2 templates failed")
}
