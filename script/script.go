package script

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Expand substitutes %name% macro tokens in a programming script.
// Only the first occurrence of each macro per line is replaced; a line
// carrying the same macro twice keeps the second occurrence verbatim.
// Unknown tokens are left untouched, there is no macro validation.
func Expand(lines []string, macros map[string]string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		for name, value := range macros {
			line = strings.Replace(line, "%"+name+"%", value, 1)
		}
		out[i] = line
	}
	return out
}

// WriteLines writes each line followed by a linefeed to the file at
// path, truncating any previous content.
func WriteLines(lines []string, path string) error {
	ofile, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(ofile)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			ofile.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		ofile.Close()
		return err
	}
	return ofile.Close()
}
