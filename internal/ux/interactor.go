// Package ux provides the user interaction capability: confirmation prompts,
// free-text questions, and styled terminal blocks.
package ux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Interactor is the boundary every user-facing prompt goes through. The
// terminal implementation blocks on stdin; tests use Scripted.
type Interactor interface {
	AskYesNo(prompt string) (bool, error)
	AskInput(prompt string) (string, error)
	DisplayBlock(title, body string)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(78)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	hintStyle = lipgloss.NewStyle().
			Faint(true)
)

// Terminal is the stdin/stdout Interactor.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates an Interactor bound to the process terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

// NewTerminalWith creates a Terminal over explicit streams.
func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// AskYesNo prompts for an explicit confirmation. Anything other than
// y/yes answers false.
func (t *Terminal) AskYesNo(prompt string) (bool, error) {
	fmt.Fprintf(t.out, "%s %s ", promptStyle.Render(prompt), hintStyle.Render("[y/N]"))
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// AskInput prompts for a free-text reply.
func (t *Terminal) AskInput(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s ", promptStyle.Render(prompt))
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// DisplayBlock renders a titled, bordered block.
func (t *Terminal) DisplayBlock(title, body string) {
	fmt.Fprintln(t.out, titleStyle.Render(title))
	fmt.Fprintln(t.out, blockStyle.Render(body))
}

// Scripted is a fake Interactor that replays queued answers.
type Scripted struct {
	YesNoAnswers []bool
	InputAnswers []string
	Blocks       []string
	Prompts      []string
}

// AskYesNo pops the next scripted confirmation; defaults to false when the
// script is exhausted.
func (s *Scripted) AskYesNo(prompt string) (bool, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.YesNoAnswers) == 0 {
		return false, nil
	}
	answer := s.YesNoAnswers[0]
	s.YesNoAnswers = s.YesNoAnswers[1:]
	return answer, nil
}

// AskInput pops the next scripted reply.
func (s *Scripted) AskInput(prompt string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.InputAnswers) == 0 {
		return "", nil
	}
	answer := s.InputAnswers[0]
	s.InputAnswers = s.InputAnswers[1:]
	return answer, nil
}

// DisplayBlock records the rendered block.
func (s *Scripted) DisplayBlock(title, body string) {
	s.Blocks = append(s.Blocks, title+"\n"+body)
}
