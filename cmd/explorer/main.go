// Command explorer serves a read-only web explorer over one or more chain
// GraphQL endpoints.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
