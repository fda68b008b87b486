package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/zsol/internal/config"
)

// errCancelled is returned when input ends before a prompt is answered.
var errCancelled = errors.New("operation cancelled")

// Prompt seams, replaced in tests.
var (
	promptSecretFn  = config.PromptForSecret
	promptLineFn    = promptLine
	promptConfirmFn = func(w io.Writer, question string) (bool, error) {
		answer, err := promptLineFn(w, question+" [y/N]: ")
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes", nil
	}
)

var stdin = bufio.NewReader(os.Stdin)

// promptLine writes prompt to w and reads one trimmed line from stdin.
func promptLine(w io.Writer, prompt string) (string, error) {
	out(w, "%s", prompt)

	line, err := stdin.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			outln(w)
			return "", errCancelled
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
