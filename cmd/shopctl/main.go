// Command shopctl is a terminal storefront client. Each profile keeps its
// credentials, identity and guest cart in a directory of its own, optionally
// encrypted with a passphrase.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/storefront/internal/app"
	"github.com/99minutos/storefront/internal/infrastructure/config"
	"github.com/99minutos/storefront/internal/infrastructure/queue"
	"github.com/99minutos/storefront/internal/infrastructure/restapi"
	"github.com/99minutos/storefront/internal/infrastructure/store"
	"github.com/99minutos/storefront/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaults, err := config.LoadCLI(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(os.Stdout, defaults).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli holds the global flags and the session opened for the command.
type cli struct {
	profile    string
	dir        string
	apiURL     string
	passphrase string
	timeout    time.Duration
	verbose    bool

	out     io.Writer
	session *app.Session
}

// newRootCmd builds the command tree. Flags default to the values in defaults.
func newRootCmd(out io.Writer, defaults *config.CLIConfig) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Shop the storefront from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.profile, "profile", defaults.Profile, "profile name")
	pf.StringVar(&c.dir, "dir", defaults.Dir, "profile directory (default: user config dir)")
	pf.StringVar(&c.apiURL, "api", defaults.APIURL, "storefront backend base URL")
	pf.StringVar(&c.passphrase, "passphrase", defaults.Passphrase, "encrypt the profile at rest")
	pf.DurationVar(&c.timeout, "timeout", defaults.Timeout, "backend request timeout")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log backend traffic")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
		c.vendorCmd(),
		c.productsCmd(),
		c.categoriesCmd(),
	)
	return root
}

// open builds the profile's session. The sequencer lives as long as the
// command.
func (c *cli) open(ctx context.Context) error {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	log := logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr})

	dir := c.dir
	if dir == "" {
		d, err := store.DefaultDir(c.profile)
		if err != nil {
			return err
		}
		dir = d
	}
	backend, err := store.OpenFile(dir, store.FileOptions{Passphrase: c.passphrase})
	if err != nil {
		return err
	}

	seq := queue.NewSequencer(0, zerolog.Nop())
	seq.Start(ctx)

	factory, err := app.NewFactory(app.Deps{
		BaseURL:    c.apiURL,
		HTTPClient: restapi.NewHTTPClient(c.timeout),
		Backends:   func(string) (store.Backend, error) { return backend, nil },
		Seq:        seq,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	c.session, err = factory.Open(ctx, c.profile)
	return err
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
