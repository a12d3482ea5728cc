package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferrous-labs/imgcrate-cli/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the harvest HTTP API",
	Long: `Starts a local HTTP server exposing the harvest pipeline:

  GET /api/harvest?url=...         batch harvest, responds with the archive
  GET /api/harvest/stream?url=...  progress events as newline-delimited JSON

Add dynamic=true to either endpoint to render the page in headless Chrome.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8632", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if harvester == nil {
		return errors.New("harvest service not configured")
	}

	srv := httpapi.NewServer(harvester, serveAddr)
	if err := srv.Start(); err != nil {
		return err
	}
	cmd.Printf("Listening on http://%s\n", srv.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	cmd.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
