package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/imageloader/internal/config"
)

// NewRootCmd creates the root command. Run without a subcommand it scrapes
// the page given with --url.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imageloader",
		Short: "Download every image embedded in a web page",
		Long: `imageloader fetches a single web page, extracts every <img> element and
downloads the images it can reach.

Each image source is tried as a full URL, as a scheme-relative URL and
finally combined with the page's scheme and host. The first candidate that
answers 200 OK is downloaded. A short random pause precedes every check.

Successful downloads are listed in filelist.txt inside the destination
directory. A relative --dir gets a sub-directory named after the page URL.

Examples:
  # Save the images of a page under ./saved-images/https__example_com
  imageloader -u https://example.com

  # Save into an absolute directory with debug logging
  imageloader -u https://example.com -D /tmp/images -d

  # Go through a local SOCKS5 proxy such as Tor
  imageloader -u http://example.onion --socks-proxy 127.0.0.1:9050`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .imageloader in current or home directory)")

	cmd.Flags().StringP("url", "u", "", "URL of the page to scrape (required)")
	cmd.Flags().StringP("dir", "D", config.DefaultDir, "Destination directory for the images")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Give up on a request after it stalls this long")
	cmd.Flags().String("socks-proxy", "", "Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().Duration("interval", 0, "Minimum time between requests to the same host (0 disables)")
	cmd.Flags().String("parser", config.ParserGoquery, "HTML parser backend: goquery or html")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolP("verbose", "v", false, "List every image in the summary, not only failures")
	_ = cmd.MarkFlagRequired("url") //nolint:errcheck // the flag is defined above

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
