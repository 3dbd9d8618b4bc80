// Command flowgate runs the automatic-HTTPS edge: a TLS-terminating
// server whose certificate is obtained and renewed from Let's Encrypt,
// with a plain-HTTP listener answering ACME challenges and redirecting
// everything else to HTTPS.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func newRootCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:           "flowgate",
		Short:         "TLS-terminating edge with automatic Let's Encrypt certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.hostname, "hostname", "", "domain to request a certificate for (overrides FLOWGATE_HOSTNAME)")
	cmd.Flags().StringVar(&flags.email, "email", "", "ACME account contact (overrides FLOWGATE_ACME_EMAIL)")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "HTTPS listen address (overrides FLOWGATE_ADDR)")
	cmd.Flags().BoolVar(&flags.staging, "staging", false, "use the Let's Encrypt staging directory")
	cmd.Flags().BoolVar(&flags.jsonLogs, "json-logs", false, "emit logs as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the flowgate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "flowgate", version)
		},
	})

	return cmd
}
