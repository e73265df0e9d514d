package main

import (
	"bytes"
	"strings"
	"testing"

	"hybridsearch/internal/model"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func init() {
	color.NoColor = true
}

func TestWriteResultsTable(t *testing.T) {
	resp := &model.SearchResponse{
		Status:   model.StatusOK,
		Total:    4,
		Degraded: []string{"semantic"},
		Results: []model.PresentedResult{
			{ID: "3", Price: fptr(1400), Zone: "Retiro", Score: 71.3, MatchedReasons: []string{"Semantic match", "Required features"}},
			{ID: "9", Score: 2},
		},
	}

	var buf bytes.Buffer
	writeResultsTable(&buf, resp)
	out := buf.String()

	assert.Contains(t, out, "warning: ranked without semantic signal")
	assert.Contains(t, out, "Showing 2 of 4 results")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Regexp(t, `^1\s+3\s+71\.3\s+1400\s+Retiro\s+Semantic match; Required features$`, lines[len(lines)-2])
	assert.Regexp(t, `^2\s+9\s+2\.0\s+-`, lines[len(lines)-1])
}

func TestWriteResultsTable_NotOK(t *testing.T) {
	var buf bytes.Buffer
	writeResultsTable(&buf, &model.SearchResponse{Status: model.StatusEmpty, Message: "no matches, try loosening your criteria"})
	assert.Equal(t, "empty: no matches, try loosening your criteria\n", buf.String())
}

func TestReadPayload(t *testing.T) {
	data, err := readPayload(strings.NewReader(`{"price_max": 900}`), "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"price_max": 900}`, string(data))

	_, err = readPayload(nil, "does-not-exist.json")
	assert.ErrorContains(t, err, "reading intent file")
}
