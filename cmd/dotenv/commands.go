package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Azhovan/dotenv"
	"github.com/Azhovan/dotenv/sourceenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// envVarEnvironment supplies the --env default.
const envVarEnvironment = "DOTENV_ENV"

var errKeyNotFound = errors.New("key not found")

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	files         []string
	basePath      string
	environment   string
	searchParents bool
	processEnv    bool
	prefix        string
	verbose       bool
}

// loader builds a Loader from the flags. Explicit files select Load,
// otherwise the environment overlay is used.
func (o *rootOptions) loader(logger log.FieldLogger) *dotenv.Loader {
	loader := dotenv.NewLoader().
		WithLogger(logger).
		SearchParents(o.searchParents)

	if o.basePath != "" {
		loader.SetBasePath(o.basePath)
	}
	if len(o.files) > 0 {
		loader.AddEnvFiles(o.files...)
	} else if o.environment != "" {
		loader.SetEnvironmentName(o.environment)
	}
	if o.processEnv {
		loader.WithSource(sourceenv.New(sourceenv.Options{
			Prefix:     o.prefix,
			TrimPrefix: o.prefix != "",
		}))
	}
	return loader
}

func (o *rootOptions) load(ctx context.Context, logger log.FieldLogger) (*dotenv.Reader, error) {
	loader := o.loader(logger)
	if len(o.files) > 0 {
		return loader.Load(ctx)
	}
	return loader.LoadEnv(ctx)
}

func newRootCmd(logger *log.Logger) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "dotenv",
		Short: "Inspect .env files",
		Long: `Load .env files and print the merged result.

Without --file the environment overlay is read from the base path:
.env, .env.{env}, .env.local (skipped for "test") and .env.{env}.local,
later files overriding earlier ones.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&opts.files, "file", "f", nil, "env file to load, in order (repeatable)")
	flags.StringVar(&opts.basePath, "base-path", "", "directory holding the env files")
	flags.StringVar(&opts.environment, "env", os.Getenv(envVarEnvironment), "environment name for the overlay (default $"+envVarEnvironment+")")
	flags.BoolVar(&opts.searchParents, "search-parents", false, "look for missing files in parent directories")
	flags.BoolVar(&opts.processEnv, "process-env", false, "let process environment variables override file values")
	flags.StringVar(&opts.prefix, "prefix", "", "only use process variables with this prefix (stripped)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log file resolution")

	rootCmd.AddCommand(
		newPrintCmd(opts, logger),
		newGetCmd(opts, logger),
		newFilesCmd(opts, logger),
	)
	return rootCmd
}

func newPrintCmd(opts *rootOptions, logger *log.Logger) *cobra.Command {
	var (
		format  string
		sources bool
		redact  []string
	)

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the merged key/value pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dumpOpts, err := formatOptions(format)
			if err != nil {
				return err
			}
			if sources {
				dumpOpts = append(dumpOpts, dotenv.WithSources())
			}
			if len(redact) > 0 {
				dumpOpts = append(dumpOpts, dotenv.WithRedactedKeys(redact...))
			}

			reader, err := opts.load(cmd.Context(), logger)
			if err != nil {
				return err
			}
			return dotenv.DumpReader(cmd.OutOrStdout(), reader, dumpOpts...)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, yaml, toml or dotenv")
	cmd.Flags().BoolVar(&sources, "sources", false, "show the file each value came from")
	cmd.Flags().StringSliceVar(&redact, "redact", nil, "keys whose values are hidden")
	return cmd
}

func formatOptions(format string) ([]dotenv.DumpOption, error) {
	switch format {
	case "text", "":
		return nil, nil
	case "json":
		return []dotenv.DumpOption{dotenv.AsJSON()}, nil
	case "yaml":
		return []dotenv.DumpOption{dotenv.AsYAML()}, nil
	case "toml":
		return []dotenv.DumpOption{dotenv.AsTOML()}, nil
	case "dotenv":
		return []dotenv.DumpOption{dotenv.AsDotenv()}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func newGetCmd(opts *rootOptions, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one value; fails when the key is absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := opts.load(cmd.Context(), logger)
			if err != nil {
				return err
			}

			value, ok := reader.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errKeyNotFound, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newFilesCmd(opts *rootOptions, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List candidate files in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := opts.loader(logger)
			if err := loader.Err(); err != nil {
				return err
			}

			specs := loader.Files()
			if len(opts.files) == 0 {
				specs = loader.Environment().Files()
			}

			for _, spec := range specs {
				status := "missing"
				if info, err := os.Stat(spec.Path); err == nil && !info.IsDir() {
					status = "found"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", spec.Path, status)
			}
			return nil
		},
	}
}
