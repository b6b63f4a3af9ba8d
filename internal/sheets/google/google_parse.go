package google

import (
	"fmt"
	"strconv"
	"strings"
)

// findSerialRow returns the 1-based sheet row whose first cell holds serial.
// Header and blank rows never match.
func findSerialRow(values [][]any, serial int) (int, bool) {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(row[0])))
		if err != nil {
			continue
		}
		if n == serial {
			return i + 1, true
		}
	}
	return 0, false
}
