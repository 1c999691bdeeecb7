// Command menuctl inspects the menu pipeline from a terminal: it expands
// slugs, resolves tenants, loads menus and machine-translates fields.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
