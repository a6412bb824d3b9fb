// Package main is the entry point for the shelfbridge executable.
package main

import "github.com/shelfbridge/shelfbridge/cmd"

func main() {
	cmd.Execute()
}
