package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks for explicit affirmation before proceeding. Only "y" or
// "yes" (case-insensitive) count as a yes; anything else, including a
// closed stdin, declines. Declining is the default on purpose: the tool
// is about to hit the network and write to disk.
func Confirm(in io.Reader, prompt string) bool {
	fmt.Printf("%s (y/N): ", prompt)

	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
