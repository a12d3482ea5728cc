// imgcrate harvests the visual assets of a web page into a ZIP archive.
package main

import (
	"fmt"
	"os"
	"time"

	zipwriter "github.com/ferrous-labs/imgcrate-cli/internal/adapters/driven/archive/zip"
	configfile "github.com/ferrous-labs/imgcrate-cli/internal/adapters/driven/config/file"
	"github.com/ferrous-labs/imgcrate-cli/internal/adapters/driven/httpfetch"
	"github.com/ferrous-labs/imgcrate-cli/internal/adapters/driving/cli"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/services"
	"github.com/ferrous-labs/imgcrate-cli/internal/discoverers/browser"
	"github.com/ferrous-labs/imgcrate-cli/internal/discoverers/static"
)

// version is set at build time:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open config: %v\n", err)
		os.Exit(1)
	}

	fetcher := httpfetch.NewClient(httpfetch.Options{
		Timeout:   time.Duration(cfg.GetInt(configfile.KeyFetchTimeoutSeconds)) * time.Second,
		UserAgent: cfg.GetString(configfile.KeyFetchUserAgent),
		RateLimit: cfg.GetFloat(configfile.KeyFetchRateLimit),
	})

	staticDisc := static.New(fetcher)
	liveDisc := browser.New(staticDisc, browser.Options{
		UserAgent: cfg.GetString(configfile.KeyFetchUserAgent),
	})

	harvester := services.NewHarvester(
		fetcher,
		staticDisc,
		liveDisc,
		services.NewAcquirer(fetcher, cfg.GetInt(configfile.KeyFetchConcurrency)),
		zipwriter.NewWriter(cfg.GetBool(configfile.KeyArchiveCompression)),
	)

	cli.Configure(harvester, cfg)
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
