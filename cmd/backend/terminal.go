package backend

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal prompts on stderr and reads the password from stdin with echo off.
// When stdin is not a terminal the password is read as a plain line.
type Terminal struct {
	In  *os.File
	Out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(t.Out, prompt)
	fd := int(t.In.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(t.In).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("unable to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(t.Out)
	if err != nil {
		return "", fmt.Errorf("unable to read password: %w", err)
	}
	return string(secret), nil
}
