package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "prex [paths...]",
	Short:            "prex - precondition inference for transformation rules",
	TraverseChildren: true, // Prioritize subcommands
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		cobra.CheckErr(err)
	},
	Run: func(cmd *cobra.Command, args []string) {
		// no subcommand
		if len(args) == 0 {
			// display help when only 'prex' is entered
			_ = cmd.Help()
			return
		}
		// Format: prex [path1 path2 ...] => behaves like the infer subcommand
		inferCmd.Run(inferCmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Set a timeout for inference")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(semanticsCmd)
}
