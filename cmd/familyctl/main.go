// Command familyctl normalizes family tree documents and manages the families
// held in the configured store.
package main

import (
	"fmt"
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "familyctl:", err)
		exitFunc(1)
	}
}
