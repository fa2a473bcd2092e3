// Command feedwatch polls syndication feeds, notifies new entries and keeps a
// per-feed watermark so that each entry is announced at least once.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
