// Package main provides the entry point for the secretgarden CLI.
//
// secretgarden provisions a set of public sites that each hide a secret page
// behind a navigation sequence. It clones the site sources, renders their
// configuration, allocates the secret sequences and writes the database
// scripts that seed them.
//
// Usage:
//
//	secretgarden init
//	secretgarden analyze
//	secretgarden generate
//
// See --help for all available options.
package main

// main is the entry point for secretgarden.
func main() {
	Execute()
}
