// Package stacktrace trims runtime stacks down to this module's own frames so
// panic logs stay readable.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries for every
// frame of stack that belongs to an internal package, outermost last.
func InternalPaths(stack []byte) []string {
	var out []string

	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)

		i := strings.Index(line, "/internal/")
		if i < 0 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[i+1:]
		if sp := strings.IndexByte(frame, ' '); sp >= 0 {
			frame = frame[:sp]
		}
		out = append(out, frame)
	}

	return out
}
