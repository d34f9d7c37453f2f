package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"nytbot/internal/jobrun"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(jobrun.ExitCode(err))
	}
}
