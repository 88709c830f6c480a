package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_AskYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"whatever\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminalWith(strings.NewReader(tt.input), &out)
			got, err := term.AskYesNo("Apply this patch?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Apply this patch?")
		})
	}
}

func TestTerminal_AskInput(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader("use the staging db\n"), &out)

	got, err := term.AskInput("How should I proceed?")
	require.NoError(t, err)
	assert.Equal(t, "use the staging db", got)
}

func TestTerminal_DisplayBlock(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader(""), &out)

	term.DisplayBlock("Proposed Fix", "pip install requests")

	assert.Contains(t, out.String(), "Proposed Fix")
	assert.Contains(t, out.String(), "pip install requests")
}

func TestScripted_ReplaysAnswers(t *testing.T) {
	s := &Scripted{
		YesNoAnswers: []bool{true, false},
		InputAnswers: []string{"retry with sudo removed"},
	}

	ok, _ := s.AskYesNo("first?")
	assert.True(t, ok)
	ok, _ = s.AskYesNo("second?")
	assert.False(t, ok)
	ok, _ = s.AskYesNo("exhausted?")
	assert.False(t, ok)

	reply, _ := s.AskInput("question?")
	assert.Equal(t, "retry with sudo removed", reply)

	s.DisplayBlock("T", "B")
	assert.Len(t, s.Blocks, 1)
	assert.Len(t, s.Prompts, 4)
}
