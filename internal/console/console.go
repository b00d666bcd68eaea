// Package console prints the operator-facing lines of the dev server:
// the startup banner, tips and the shutdown message.
//
// Structured logs go through slog; this package is only for humans
// watching the terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const ruleWidth = 60

var tips = []string{
	"Make sure MetaMask/Phantom extensions are enabled",
	"Check extension icon is visible in Chrome toolbar",
	"Click the extension icon to unlock wallet if needed",
	"Press Ctrl+C to stop the server",
}

// Console writes colored status lines to a writer.
type Console struct {
	mu     sync.Mutex
	writer io.Writer

	title   *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	failure *color.Color
}

// New creates a console that writes to stdout.
func New() *Console {
	return &Console{
		writer:  os.Stdout,
		title:   color.New(color.FgCyan, color.Bold),
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
}

// WithWriter sets the writer for the console
func (c *Console) WithWriter(w io.Writer) *Console {
	c.writer = w
	return c
}

// Banner prints the header, serving directory, URL and tips.
func (c *Console) Banner(name, dir, url string, autoOpen bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, rule)
	c.title.Fprintf(c.writer, "%s - Local Development Server\n", name)
	fmt.Fprintln(c.writer, rule)
	fmt.Fprintln(c.writer)
	fmt.Fprintf(c.writer, "Serving from: %s\n", c.info.Sprint(dir))
	fmt.Fprintf(c.writer, "Server running at: %s\n", c.info.Sprint(url))
	if autoOpen {
		fmt.Fprintln(c.writer)
		fmt.Fprintln(c.writer, "Opening browser automatically...")
	}
	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, rule)
	fmt.Fprintln(c.writer)
	c.title.Fprintln(c.writer, "TIPS:")
	for _, tip := range tips {
		fmt.Fprintf(c.writer, "  • %s\n", tip)
	}
	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, rule)
	fmt.Fprintln(c.writer)
}

// Started reports that the server accepts requests.
func (c *Console) Started() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.success.Fprintln(c.writer, "Server started! Waiting for requests...")
	fmt.Fprintln(c.writer)
}

// BrowserFailed tells the operator to open the page by hand.
func (c *Console) BrowserFailed(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.warn.Fprintln(c.writer, "Could not open browser automatically")
	fmt.Fprintf(c.writer, "   Please open: %s\n\n", url)
}

// StartupFailed reports a fatal error before serving began.
func (c *Console) StartupFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failure.Fprintf(c.writer, "Server failed to start: %v\n", err)
}

// Goodbye prints the farewell line after shutdown.
func (c *Console) Goodbye() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, "Server stopped. Goodbye!")
	fmt.Fprintln(c.writer)
}
