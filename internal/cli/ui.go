// Package cli is the interactive front end: it parses slash commands, drives
// the workout manager, and owns every blocking prompt so the core packages
// never touch the terminal.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MessageSink shows plain text to the user.
type MessageSink interface {
	Show(msg string)
	ShowError(msg string)
}

// Confirmer asks a blocking yes/no question. Answering no aborts the pending
// mutation with no partial effect.
type Confirmer interface {
	Confirm(prompt string) bool
}

// LineReader reads one raw input line; ok is false at end of input.
type LineReader interface {
	ReadLine() (line string, ok bool)
}

// ConsoleUI implements the collaborator interfaces over stdio.
type ConsoleUI struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewConsoleUI(in io.Reader, out io.Writer) *ConsoleUI {
	return &ConsoleUI{in: bufio.NewScanner(in), out: out}
}

func (u *ConsoleUI) Show(msg string) {
	fmt.Fprintln(u.out, msg)
}

func (u *ConsoleUI) ShowError(msg string) {
	fmt.Fprintln(u.out, "Error:", msg)
}

// Divider prints the separator between command interactions.
func (u *ConsoleUI) Divider() {
	fmt.Fprintln(u.out, strings.Repeat("-", 40))
}

// Prompt prints the input marker without a newline.
func (u *ConsoleUI) Prompt() {
	fmt.Fprint(u.out, "> ")
}

// ReadLine returns the next input line; ok is false at EOF.
func (u *ConsoleUI) ReadLine() (string, bool) {
	if !u.in.Scan() {
		return "", false
	}
	return u.in.Text(), true
}

// Confirm blocks until the user answers Y or N, with no timeout. End of
// input counts as no.
func (u *ConsoleUI) Confirm(prompt string) bool {
	for {
		fmt.Fprintln(u.out, prompt)
		line, ok := u.ReadLine()
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintln(u.out, "Please answer Y or N.")
	}
}
