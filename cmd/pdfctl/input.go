package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"pdfmark/internal/client"
)

// Swapped out in tests so nothing touches the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptPassword reads a password without echo when stdin is a terminal,
// and a plain line otherwise so the CLI can be scripted.
func promptPassword(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	fd := int(os.Stdin.Fd())
	if isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// annotationList collects repeated -a flags of the form page:x:y:text.
// Text may itself contain colons.
type annotationList []client.Annotation

func (l *annotationList) String() string {
	return fmt.Sprintf("%d annotations", len(*l))
}

func (l *annotationList) Set(v string) error {
	parts := strings.SplitN(v, ":", 4)
	if len(parts) != 4 {
		return fmt.Errorf("annotation %q: want page:x:y:text", v)
	}
	page, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("annotation %q: bad page: %w", v, err)
	}
	x, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return fmt.Errorf("annotation %q: bad x: %w", v, err)
	}
	y, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return fmt.Errorf("annotation %q: bad y: %w", v, err)
	}
	*l = append(*l, client.Annotation{Page: page, X: x, Y: y, Text: parts[3]})
	return nil
}

// parseViewport reads "WIDTHxHEIGHT". An empty value is the zero viewport.
func parseViewport(v string) (client.Viewport, error) {
	if v == "" {
		return client.Viewport{}, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		return client.Viewport{}, fmt.Errorf("viewport %q: want WIDTHxHEIGHT", v)
	}
	width, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return client.Viewport{}, fmt.Errorf("viewport %q: %w", v, err)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return client.Viewport{}, fmt.Errorf("viewport %q: %w", v, err)
	}
	return client.Viewport{Width: width, Height: height}, nil
}
