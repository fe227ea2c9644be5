package commands

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// NewOpenCmd creates the open command
func NewOpenCmd(opts *Options) *cobra.Command {
	var webURL string

	cmd := &cobra.Command{
		Use:   "open [page]",
		Short: "Open the storefront in a browser",
		Long: `Open the storefront in a browser, optionally at a page such as "login" or "cart".

The storefront is assumed to share the backend's origin unless --web-url is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var page string
			if len(args) > 0 {
				page = args[0]
			}
			return runOpen(opts, webURL, page)
		},
	}

	cmd.Flags().StringVar(&webURL, "web-url", "", "Storefront URL, e.g. http://localhost:3000")

	return cmd
}

func runOpen(opts *Options, webURL, page string) error {
	if webURL == "" {
		cn, err := opts.connect()
		if err != nil {
			return err
		}
		webURL = cn.server.Origin()
	}

	target, err := url.JoinPath(webURL, strings.TrimPrefix(page, "/"))
	if err != nil {
		return fmt.Errorf("invalid storefront URL %q: %w", webURL, err)
	}

	fmt.Fprintf(opts.Out, "Opening %s...\n", target)

	if err := openBrowser(target); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, target)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
