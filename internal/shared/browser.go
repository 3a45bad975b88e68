package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser opens url in the default system browser without waiting for it to exit.
//
// Used by `content show --open` to preview thumbnails.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// browserCommand returns the launcher for goos.
func browserCommand(goos, url string) (string, []string, error) {
	if url == "" {
		return "", nil, fmt.Errorf("%w: empty URL", ErrInvalidArgument)
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
