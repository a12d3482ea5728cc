package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ferrous-labs/imgcrate-cli/internal/adapters/driving/tui"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driving"
)

var (
	grabDynamic bool
	grabOutput  string
	grabPlain   bool
)

var grabCmd = &cobra.Command{
	Use:   "grab <url>",
	Short: "Download a page's images into a ZIP archive",
	Long: `Fetches the page, discovers every image it references, downloads
them concurrently and writes a ZIP archive with the assets sorted into
category folders (images, icons, logos, svgs, banners).

With --dynamic the page is additionally rendered in headless Chrome so
assets loaded by JavaScript are discovered too.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrab,
}

func init() {
	grabCmd.Flags().BoolVarP(&grabDynamic, "dynamic", "d", false, "render the page in headless Chrome")
	grabCmd.Flags().StringVarP(&grabOutput, "output", "o", "", "archive path (default: <host>_images.zip)")
	grabCmd.Flags().BoolVar(&grabPlain, "plain", false, "line-based progress output, no progress bar")
	rootCmd.AddCommand(grabCmd)
}

func runGrab(cmd *cobra.Command, args []string) error {
	if harvester == nil {
		return errors.New("harvest service not configured")
	}

	opts := driving.Options{Dynamic: grabDynamic}
	if !cmd.Flags().Changed("dynamic") && configStore != nil {
		opts.Dynamic = configStore.GetBool("discovery.dynamic")
	}

	// Cancelling on return releases the producer if the progress view is
	// quit mid-run; its emits select on ctx.Done.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	events := harvester.Stream(ctx, args[0], opts)

	var final domain.ProgressEvent
	var err error
	if !grabPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		final, err = tui.Run(events)
	} else {
		final, err = printEvents(cmd, events)
	}
	if err != nil {
		return err
	}

	if final.Stage != domain.StageDone {
		return fmt.Errorf("harvest failed: %s", final.Err)
	}

	path := grabOutput
	if path == "" {
		path = final.Filename
	}
	if err := os.WriteFile(path, final.Archive, 0644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	cmd.Printf("Wrote %s (%d assets, %d bytes)\n", path, final.Total, len(final.Archive))
	return nil
}

// printEvents renders the stream as plain lines, one per stage change and
// one per downloaded item. Used for pipes and --plain.
func printEvents(cmd *cobra.Command, events <-chan domain.ProgressEvent) (domain.ProgressEvent, error) {
	var final domain.ProgressEvent
	var lastStage domain.Stage

	for ev := range events {
		switch {
		case ev.Stage == domain.StageDownloading:
			cmd.Printf("[%3d%%] %d/%d %s\n", ev.Percent, ev.Completed, ev.Total, ev.Item)
		case ev.Stage != lastStage:
			cmd.Printf("[%3d%%] %s\n", ev.Percent, ev.Stage)
		}
		lastStage = ev.Stage
		if ev.Terminal() {
			final = ev
		}
	}

	if final.Stage == "" {
		return final, errors.New("progress stream ended without a terminal event")
	}
	return final, nil
}
