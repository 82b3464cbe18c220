package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencost/gputco/pkg/cmd/compute"
	"github.com/opencost/gputco/pkg/cmd/server"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/version"
)

const (
	// commandRoot is the root command used to route to sub-commands
	commandRoot string = "gputco"

	// CommandServe runs the HTTP API.
	CommandServe string = "serve"

	// CommandCompute runs a single calculation from a configuration file.
	CommandCompute string = "compute"

	// CommandCatalog prints the built-in catalogs, or a single kind of them.
	CommandCatalog string = "catalog"
)

// Execute runs the root command for the application. By default, if no command argument is provided
// on the command line, serve is executed.
//
// serveCmd allows an alternate server implementation; when nil the default is used. Any additional
// commands passed in will be added to the root command.
func Execute(serveCmd *cobra.Command, cmds ...*cobra.Command) error {
	if serveCmd == nil {
		serveCmd = newServeCommand()
	}

	if err := validate(serveCmd, CommandServe); err != nil {
		return err
	}

	rootCmd := newRootCommand(serveCmd, cmds...)

	// cobra doesn't provide a way to set a default sub-command, so it is prepended when omitted
	if len(os.Args) > 1 {
		pCmd, _, err := rootCmd.Find(os.Args[1:])
		if err != nil || pCmd.Use == rootCmd.Use {
			rootCmd.SetArgs(append([]string{CommandServe}, os.Args[1:]...))
		}
	} else {
		rootCmd.SetArgs([]string{CommandServe})
	}

	return rootCmd.Execute()
}

// newRootCommand creates a new root command which will act as a sub-command router.
func newRootCommand(serveCmd *cobra.Command, cmds ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:          commandRoot,
		Short:        "GPU cluster total cost of ownership calculator.",
		Version:      version.FriendlyVersion(),
		SilenceUsage: true,
	}

	// Add our persistent flags, these are global and available anywhere
	cmd.PersistentFlags().String("log-level", "info", "Set the log level")
	cmd.PersistentFlags().String("log-format", "pretty", "Set the log format - Can be either 'JSON' or 'pretty'")
	cmd.PersistentFlags().Bool("disable-log-color", false, "Disable coloring of log output")

	viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", cmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("disable-log-color", cmd.PersistentFlags().Lookup("disable-log-color"))

	// Setup viper to read from the env, this allows reading flags from the command line or the env
	// using the format 'LOG_LEVEL'
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	cmd.AddCommand(
		append([]*cobra.Command{
			serveCmd,
			newComputeCommand(),
			newCatalogCommand(),
		}, cmds...)...,
	)

	return cmd
}

func newServeCommand() *cobra.Command {
	opts := &server.ServerOpts{}

	serveCmd := &cobra.Command{
		Use:   CommandServe,
		Short: "Serve the TCO calculation, override and activity APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Init logging here so cobra/viper has processed the command line args and flags
			// otherwise only envvars are available during init
			log.InitLogging(true)
			return server.Execute(cmd.Context(), opts)
		},
	}

	serveCmd.Flags().IntVar(&opts.Port, "port", 0, "Port to listen on; defaults to $API_PORT")

	return serveCmd
}

func newComputeCommand() *cobra.Command {
	opts := &compute.ComputeOpts{}

	computeCmd := &cobra.Command{
		Use:   CommandCompute,
		Short: "Compute the TCO for a configuration file and print the results.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogging(false)
			opts.Out = cmd.OutOrStdout()
			return compute.Execute(opts)
		},
	}

	computeCmd.Flags().StringVarP(&opts.ConfigFile, "file", "f", "", "YAML or JSON configuration file; omitted fields use defaults")
	computeCmd.Flags().StringVar(&opts.OverridesFile, "overrides", "", "YAML or JSON map of override keys to values")
	computeCmd.Flags().StringVarP(&opts.Output, "output", "o", compute.OutputTable, "Output format: table, json, yaml or csv")
	computeCmd.Flags().StringVar(&opts.ExportPath, "export", "", "Also store a CSV export at this path in the configuration storage")

	return computeCmd
}

func newCatalogCommand() *cobra.Command {
	opts := &compute.CatalogOpts{}

	catalogCmd := &cobra.Command{
		Use:   CommandCatalog + " [kind]",
		Short: "Print the catalogs, or the entries of a single kind.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogging(false)
			if len(args) == 1 {
				opts.Kind = args[0]
			}
			opts.Out = cmd.OutOrStdout()
			return compute.ExecuteCatalog(opts)
		},
	}

	catalogCmd.Flags().StringVarP(&opts.Output, "output", "o", compute.OutputYAML, "Output format: json or yaml")

	return catalogCmd
}

// validate checks the command's use to see if it matches an expected command name.
func validate(cmd *cobra.Command, command string) error {
	if cmd.Use != command {
		return fmt.Errorf("Incompatible '%s' command provided to run-time.", command)
	}
	return nil
}
