// Command fitcompliance scores a recorded ride against its planned workout.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fitcompliance failed: %v\n", err)
		os.Exit(1)
	}
}
