package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/tickgate/internal/config"
)

func newConfigCmd() *cobra.Command {
	var (
		configPath string
		writePath  string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, file and environment overrides are
applied. With --write the defaults are saved to a file as a starting point.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if writePath != "" {
				if err := config.Save(config.Default(), writePath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", writePath)
				return nil
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&writePath, "write", "", "Write the default config to this path")

	return cmd
}
