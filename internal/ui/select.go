// Package ui renders resolution results for the terminal and offers an
// fzf picker for interactive selection. Items reach fzf on stdin as plain
// text; no preview command or shell string is ever built from remote data.
package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the user aborts the picker.
var ErrCancelled = errors.New("selection cancelled")

// Select presents items via fzf and returns the index of the chosen item.
func Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		return -1, fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "40%",
		"--reverse",
		"--with-nth", "2..", // hide the index column
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	)
	cmd.Stdin = strings.NewReader(numberItems(items))
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 130 {
			return -1, ErrCancelled
		}
		return -1, fmt.Errorf("fzf failed: %w", err)
	}

	return parseSelection(stdout.String(), len(items))
}

// numberItems prefixes each item with its index and a tab. Tabs and
// newlines inside items are flattened so every item stays on one line.
func numberItems(items []string) string {
	var b strings.Builder
	flatten := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	for i, item := range items {
		fmt.Fprintf(&b, "%d\t%s\n", i, flatten.Replace(item))
	}
	return b.String()
}

// parseSelection extracts the index column from an fzf output line.
func parseSelection(out string, n int) (int, error) {
	line := strings.TrimSpace(out)
	if line == "" {
		return -1, fmt.Errorf("no selection made")
	}
	field, _, _ := strings.Cut(line, "\t")
	idx, err := strconv.Atoi(field)
	if err != nil {
		return -1, fmt.Errorf("parsing selection index: %w", err)
	}
	if idx < 0 || idx >= n {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}
	return idx, nil
}
