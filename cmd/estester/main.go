package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	estester "github.com/kurakura967/go-estester"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "estester",
		Short:         "Manage Elasticsearch test fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLoadCommand())
	root.AddCommand(newCleanCommand())
	return root
}

// fixtureFlags are the flags shared by load and clean.
type fixtureFlags struct {
	dir     string
	host    string
	timeout time.Duration
	verbose bool
}

func (f *fixtureFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "fixtures", "fixture directory")
	cmd.Flags().StringVar(&f.host, "host", envOr("ELASTICSEARCH_URL", estester.DefaultHost), "Elasticsearch endpoint")
	cmd.Flags().DurationVar(&f.timeout, "timeout", estester.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log each lifecycle step")
}

func newLoadCommand() *cobra.Command {
	var flags fixtureFlags
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Create indices and load fixture documents from a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixture, err := buildFixture(flags)
			if err != nil {
				return err
			}
			return fixture.PreSetup(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func newCleanCommand() *cobra.Command {
	var flags fixtureFlags
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the indices declared in a fixture directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixture, err := buildFixture(flags)
			if err != nil {
				return err
			}
			return fixture.PostTeardown(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func buildFixture(flags fixtureFlags) (*estester.MultiIndexFixture, error) {
	set, err := estester.ParseFixtureDir(flags.dir)
	if err != nil {
		return nil, err
	}

	cfg := estester.DefaultConfig()
	cfg.Host = flags.host
	cfg.Timeout = flags.timeout
	if flags.verbose {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
		cfg.Logger = logger
	}

	client, err := estester.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := estester.NewESBackend(client)
	if err != nil {
		return nil, err
	}

	return estester.NewMultiIndexFixture(backend, set, estester.WithConfig(cfg))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
