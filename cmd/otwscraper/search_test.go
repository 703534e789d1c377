package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"otwscraper/pkg/ui"
)

func TestPrompterFillsMissingFields(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("QA Engineer\nLille\nabc\n0\n25\n"), &out)

	q, err := p.query("", "", 0, false)
	require.NoError(t, err)

	assert.Equal(t, "QA Engineer", q.JobTitle)
	assert.Equal(t, "Lille", q.Location)
	assert.Equal(t, 25, q.MaxProfiles)
	assert.Equal(t, 2, strings.Count(out.String(), "Enter a whole number"))
}

func TestPrompterKeepsFlagValues(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(""), &out)

	q, err := p.query("Go Developer", "Berlin", 10, true)
	require.NoError(t, err)

	assert.Equal(t, "Go Developer", q.JobTitle)
	assert.Equal(t, "Berlin", q.Location)
	assert.True(t, q.IncludeAllProfiles)
	assert.Empty(t, out.String(), "nothing should be asked")
}

func TestPrompterEmptyLocationFlag(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(""), &out)
	p.askLocation = false

	q, err := p.query("Data Analyst", "", 5, false)
	require.NoError(t, err)
	assert.Empty(t, q.Location)
}

func TestPrompterEOF(t *testing.T) {
	p := newPrompter(strings.NewReader(""), &bytes.Buffer{})

	_, err := p.query("", "", 0, false)
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
		{"nope\n", false},
	}

	for _, tt := range tests {
		p := newPrompter(strings.NewReader(tt.input), &bytes.Buffer{})
		got, err := p.confirm("Start?")
		if err != nil {
			t.Fatalf("confirm(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestClampMax(t *testing.T) {
	var out bytes.Buffer
	old := ui.Out
	ui.Out = &out
	defer func() { ui.Out = old }()

	if got := clampMax(100, 500); got != 100 {
		t.Errorf("clampMax(100, 500) = %d, want 100", got)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected warning: %q", out.String())
	}

	if got := clampMax(800, 500); got != 500 {
		t.Errorf("clampMax(800, 500) = %d, want 500", got)
	}
	if !strings.Contains(out.String(), "500") {
		t.Errorf("expected a warning naming the cap, got %q", out.String())
	}
}

func TestExportTarget(t *testing.T) {
	assert.Equal(t, "csv", exportTarget("csv", []string{"sheets"}, "sqlite"))
	assert.Equal(t, "sheets", exportTarget("", []string{"multi", "sheets"}, "csv"))
	assert.Equal(t, "sqlite", exportTarget("", nil, "sqlite"))
}

func TestExitError(t *testing.T) {
	err := withExitCode(3, nil)
	assert.Equal(t, "exit status 3", err.Error())

	var exit *exitError
	require.ErrorAs(t, withExitCode(2, assert.AnError), &exit)
	assert.Equal(t, 2, exit.code)
	assert.ErrorIs(t, exit, assert.AnError)
}
