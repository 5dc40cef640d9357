package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomrun/loom/internal/discovery"
	"github.com/loomrun/loom/internal/metrics"
	"github.com/loomrun/loom/internal/obslog"
	"github.com/loomrun/loom/internal/qr"
	"github.com/loomrun/loom/internal/webserver"
)

func newServeCmd() *cobra.Command {
	var (
		addr       string
		enableMDNS bool
		printQR    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose a local HTTP/WebSocket attach surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("serve: listen on %s: %w", addr, err)
			}
			port := listener.Addr().(*net.TCPAddr).Port
			url := fmt.Sprintf("http://%s", listener.Addr().String())

			srv := webserver.New(metrics.New())

			if enableMDNS {
				mdnsServer, err := discovery.Advertise("loom", port, url)
				if err != nil {
					fmt.Fprintf(os.Stderr, "warning: mDNS advertisement failed: %v\n", err)
				} else {
					defer mdnsServer.Shutdown()
				}
			}
			if printQR {
				if err := qr.Fprint(cmd.OutOrStdout(), url); err != nil {
					fmt.Fprintf(os.Stderr, "warning: failed to render QR code: %v\n", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loom serve listening on %s\n", url)
			obslog.LogKV("cli", "serve starting", "addr", url)
			return http.Serve(listener, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4173", "address to listen on")
	cmd.Flags().BoolVar(&enableMDNS, "mdns", false, "advertise this server on the LAN via mDNS")
	cmd.Flags().BoolVar(&printQR, "qr", false, "print a terminal QR code for the attach URL")
	return cmd
}
