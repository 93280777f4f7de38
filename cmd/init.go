package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cexlab/prex"
	"github.com/cexlab/prex/internal/translate"
)

// initCmd: prex init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new inference configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := initConfigurationFile(cfgFile)
		if err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return
		}
		fmt.Printf("Configuration file created/updated: %s\n", path)
	},
}

func initConfigurationFile(configurationPath string) (string, error) {
	if configurationPath == "" {
		configurationPath = ".prex.yaml"
	}

	d, err := yaml.Marshal(prex.DefaultConfig())
	if err != nil {
		return "", err
	}
	return configurationPath, os.WriteFile(configurationPath, d, 0o644)
}

// semanticsCmd: prex semantics
var semanticsCmd = &cobra.Command{
	Use:   "semantics",
	Short: "List the available instruction semantics profiles",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range translate.ProfileNames() {
			fmt.Println(name)
		}
	},
}
