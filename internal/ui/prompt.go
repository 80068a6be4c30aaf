package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Confirm prompts the user with a yes/no question and returns true only for
// an explicit "y" or "yes" answer.
func Confirm(question string) (bool, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s (y/N): ", question)

	input, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes", nil
}
