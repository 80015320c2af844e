package http

import (
	"os"

	"github.com/pkg/browser"
)

// OpenBrowser launches the default browser on url. Launcher output goes to
// stderr so stdout stays reserved for dry-run statements.
func OpenBrowser(url string) error {
	browser.Stdout = os.Stderr
	return browser.OpenURL(url)
}
