// Command aozora-api runs the excerpt service: it loads the Aozora Bunko
// catalog, starts the cache replenisher, and serves the HTTP API.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	aozoraapi "github.com/KukimiCan/aozora-api"
	"github.com/KukimiCan/aozora-api/catalog"
	"github.com/KukimiCan/aozora-api/fetch"
	"github.com/KukimiCan/aozora-api/ncache"
	"github.com/KukimiCan/aozora-api/replenish"
	"github.com/KukimiCan/aozora-api/server"
)

var log = logging.Logger("aozora-api")

var (
	flagListen    string
	flagCSV       string
	flagBaseURL   string
	flagCacheSize int
	flagInterval  time.Duration
	flagLogLevel  string
	flagOrigins   []string
)

var rootCmd = &cobra.Command{
	Use:   "aozora-api",
	Short: "Serve random Aozora Bunko excerpts from a replenished cache",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flagListen, "listen", "0.0.0.0:8000", "address to listen on")
	rootCmd.Flags().StringVar(&flagCSV, "csv", "list_person_all_extended.csv", "path to the Aozora Bunko index CSV")
	rootCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "archive base URL (default is the public Aozora Bunko site)")
	rootCmd.Flags().IntVar(&flagCacheSize, "cache-size", 20, "number of documents the replenisher keeps ready")
	rootCmd.Flags().DurationVar(&flagInterval, "interval", time.Second, "pause between replenish iterations")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringSliceVar(&flagOrigins, "allow-origin", nil, "origins allowed for cross-origin requests")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(aozoraapi.Release)
	},
}

func run(cmd *cobra.Command, args []string) error {
	if err := logging.SetLogLevel("*", flagLogLevel); err != nil {
		return err
	}

	// A missing catalog is a degraded state, not a fatal one: the service
	// comes up and reports fetch failures until the file is provided.
	cat, err := catalog.Load(flagCSV)
	if err != nil {
		log.Errorw("Catalog unavailable, serving without it", "path", flagCSV, "err", err)
		cat = nil
	}

	fetcher, err := fetch.New(cat, fetch.WithBaseURL(flagBaseURL))
	if err != nil {
		return err
	}

	cache, err := ncache.New(ncache.WithCapacity(flagCacheSize))
	if err != nil {
		return err
	}

	repl, err := replenish.New(cache, fetcher, replenish.WithInterval(flagInterval))
	if err != nil {
		return err
	}
	repl.Start()
	defer repl.Close()

	srv, err := server.New(cache, fetcher,
		server.WithListenAddr(flagListen),
		server.WithStartServer(true),
		server.WithAllowOrigins(flagOrigins...))
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("Shutting down", "signal", sig.String())

	repl.Close()
	return srv.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
