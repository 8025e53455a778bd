// Package prompt implements the y/n confirmations destructive commands
// ask for before acting.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prints the question to w and reads one line from r. Only an
// answer of y or yes confirms; anything else, including a read error,
// declines.
func Confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s (y/n): ", question)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
