package log

import "fmt"

func formatWord(w uint16) string {
	return fmt.Sprintf("0x%04X", w)
}
