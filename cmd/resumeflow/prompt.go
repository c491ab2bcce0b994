package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// promptConfirmer asks on out and reads a y/N answer from in.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (c *promptConfirmer) ConfirmAction(prompt string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt) //nolint:errcheck
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// answered is a confirmation obtained earlier.
type answered bool

func (a answered) ConfirmAction(string) (bool, error) {
	return bool(a), nil
}
