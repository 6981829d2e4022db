//go:build !linux
// +build !linux

package main

import "fmt"

func cmdWatch(args []string) error {
	return fmt.Errorf("solispc watch: inotify-based watching is Linux-only")
}
