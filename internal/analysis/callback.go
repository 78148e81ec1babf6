package analysis

import "fmt"

// Callback receives plain status lines for the hosting process. Lines of
// the form "callback@key@value" carry machine-parsable progress; anything
// else is free-form console output.
type Callback func(line string)

// NopCallback discards all status lines.
func NopCallback(string) {}

func (c Callback) printf(format string, args ...any) {
	if c != nil {
		c(fmt.Sprintf(format, args...))
	}
}

func (c Callback) emit(key string, value any) {
	if c != nil {
		c(fmt.Sprintf("callback@%s@%v", key, value))
	}
}
