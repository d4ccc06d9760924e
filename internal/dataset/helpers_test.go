package dataset_test

import (
	"fmt"
	"strings"
)

// formatAddition renders "a+b" padded to 5 characters and "_sum" padded to 3.
func formatAddition(a, b int) string {
	return fmt.Sprintf("%-5s_%-2d\n", fmt.Sprintf("%d+%d", a, b), a+b)
}

func fmtSscanf(question, answer string, x, y, sum *int) (int, error) {
	n, err := fmt.Sscanf(strings.TrimSpace(question), "%d+%d", x, y)
	if err != nil {
		return n, err
	}
	m, err := fmt.Sscanf(strings.TrimSpace(strings.TrimPrefix(answer, "_")), "%d", sum)
	return n + m, err
}
