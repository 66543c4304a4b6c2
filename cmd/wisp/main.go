// Command wisp compiles and runs wisp source: a file in one shot, or
// a persistent-VM REPL with no arguments.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var exitErr *exitError
	if asExitError(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 64
}

// exitError carries the exact process exit code a failure should
// produce, per the driver's contract: 64 usage, 65 compile error, 70
// runtime error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func asExitError(err error, target **exitError) bool {
	for err != nil {
		if ee, ok := err.(*exitError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
