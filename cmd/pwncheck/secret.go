package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNoTerminal = errors.New("no terminal available for interactive password prompt (use --stdin)")

// terminalPassword prompts on stderr and reads without echo when stdin is a
// terminal.
func terminalPassword(stdin io.Reader, stderr io.Writer) func(string) ([]byte, error) {
	return func(prompt string) ([]byte, error) {
		f, ok := stdin.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return nil, errNoTerminal
		}

		fmt.Fprint(stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		return b, nil
	}
}

// readSecret returns one secret from the first line of stdin when fromStdin
// is set, or from the terminal prompt otherwise. A trailing CR/LF is dropped;
// other whitespace is kept because it is part of the password.
func (a *app) readSecret(fromStdin bool) ([]byte, error) {
	if !fromStdin {
		return a.readPassword("Password: ")
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return nil, errors.New("no password on stdin")
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return []byte(line), nil
}
