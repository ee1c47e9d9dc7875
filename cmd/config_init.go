package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/novelgrab/internal/config"

	"github.com/spf13/cobra"
)

var (
	initURL         string
	initFormat      string
	initTraditional bool
	initYes         bool
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config with the crawl defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		def := config.DefaultConfig()
		def.DefaultURL = initURL
		if initFormat != "" {
			def.Format = initFormat
		}
		if initTraditional {
			f := false
			def.ToSimplified = &f
		}

		if _, err := def.Core(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}

		fmt.Println("Default configuration:")
		def.Print()
		fmt.Println()

		if !initYes {
			fmt.Printf("Create the Default config in %s? [y/N]: ", config.ConfigsDir())
			resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			resp = strings.TrimSpace(strings.ToLower(resp))
			if resp != "y" && resp != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		path, err := config.InitDefaultConfig(def)
		if errors.Is(err, os.ErrExist) {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			fmt.Println("It is active now. Use `novelgrab config reset` to recreate it.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Println("Config created at:", path)
		fmt.Println("This config is now active (label: Default).")
		if def.DefaultURL == "" {
			fmt.Println("Set default_url with `novelgrab config edit` or pass --url to download.")
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initURL, "url", "", "default novel URL stored in the profile")
	configInitCmd.Flags().StringVar(&initFormat, "format", "", "output format: epub, txt or pdf")
	configInitCmd.Flags().BoolVar(&initTraditional, "traditional", false, "keep Traditional Chinese instead of converting to Simplified")
	configInitCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "create without asking")
	configCmd.AddCommand(configInitCmd)
}
