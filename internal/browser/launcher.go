// Package browser opens the served page in the user's default browser.
package browser

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/browser"
)

// Launcher opens a URL in a browser.
type Launcher interface {
	Open(url string) error
}

// LauncherFunc adapts a plain function to Launcher.
type LauncherFunc func(url string) error

// Open calls f(url).
func (f LauncherFunc) Open(url string) error {
	return f(url)
}

// System launches the platform default browser via xdg-open, open or
// rundll32 depending on the OS.
type System struct {
	// Output receives anything the helper program prints. Nil discards it.
	Output io.Writer
}

// NewSystem returns a launcher for the default browser.
func NewSystem() *System {
	return &System{}
}

// Open starts the browser and returns once the helper has been launched.
func (s *System) Open(u string) error {
	out := s.Output
	if out == nil {
		out = io.Discard
	}
	browser.Stdout = out
	browser.Stderr = out

	if err := browser.OpenURL(u); err != nil {
		return fmt.Errorf("open browser at %s: %w", u, err)
	}
	return nil
}

// Nop never opens anything. Used when auto-open is disabled.
type Nop struct{}

// Open does nothing.
func (Nop) Open(string) error { return nil }

// PageURL builds the address the browser should open:
// http://localhost:<port>/<index>.
func PageURL(port int, index string) string {
	u := url.URL{
		Scheme: "http",
		Host:   "localhost:" + strconv.Itoa(port),
		Path:   "/" + strings.TrimPrefix(index, "/"),
	}
	return u.String()
}
