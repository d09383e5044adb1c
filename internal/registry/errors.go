package registry

import "fmt"

// PatternCompileError reports an invalid pattern handed to RegisterPattern.
// The entry is not added when this is returned.
type PatternCompileError struct {
	Source string
	Err    error
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("compile command pattern %q: %v", e.Source, e.Err)
}

func (e *PatternCompileError) Unwrap() error { return e.Err }
