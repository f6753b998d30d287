package log

import (
	"fmt"
)

var DebugEnabled bool

func Debug(format string, args ...any) {
	if DebugEnabled {
		fmt.Printf(format+"\n", args...)
	}
}

// Warn is not gated: the hardware model reports misconfigured register
// accesses unconditionally, it just never faults on them.
func Warn(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
