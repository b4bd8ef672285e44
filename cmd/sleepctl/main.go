// Command sleepctl runs the sleep-cycle calculations and database chores
// from the shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sleepctl:", err)
		os.Exit(1)
	}
}
