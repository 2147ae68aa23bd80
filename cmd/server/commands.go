package main

import (
	"fmt"
	"io"
	"os"

	"github.com/shopapp/backend/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// serveOptions are the flags shared by the root and serve commands.
type serveOptions struct {
	configPath string
	envFile    string
}

// newRootCommand builds the CLI. Running it without a subcommand serves the API.
func newRootCommand(fsys afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	opts := &serveOptions{}

	run := func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), fsys, opts, os.Environ(), stdout, stderr)
	}

	root := &cobra.Command{
		Use:          "shopapp",
		Short:        "Shop backend API server",
		Long:         "Serves the product, category and image upload API.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         run,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath,
		"path to the XML or YAML config file, created with defaults if missing")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env",
		"dotenv file with environment overrides, ignored if missing")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the API server",
			Args:  cobra.NoArgs,
			RunE:  run,
		},
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shopapp %s (built %s)\n", Version, BuildTime)
		},
	}
}
