package judge

import (
	"strconv"
	"strings"
)

// PassedTests compares stdout with the expected output line by line after trimming
// and returns "passed/total". Counting stops at the first missing stdout line.
func PassedTests(expected string, stdout *string) string {
	want := trimmedLines(expected)
	passed := 0
	if stdout != nil {
		got := trimmedLines(*stdout)
		for i := range want {
			if i >= len(got) {
				break
			}
			if want[i] == got[i] {
				passed++
			}
		}
	}
	return strconv.Itoa(passed) + "/" + strconv.Itoa(len(want))
}

func trimmedLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}
