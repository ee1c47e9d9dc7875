package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/novelgrab/internal/config"

	"github.com/spf13/cobra"
)

var (
	addFrom   string
	addURL    string
	addFormat string
)

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config, from the defaults or a copy of another profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Enter label for new config: ")
			label, _ = reader.ReadString('\n')
		}
		label = strings.TrimSpace(label)

		seed := config.DefaultConfig()
		if addFrom != "" {
			from, err := config.LoadProfile(addFrom)
			if err != nil {
				return err
			}
			seed = from
		}
		if addURL != "" {
			seed.DefaultURL = addURL
		}
		if addFormat != "" {
			seed.Format = addFormat
		}

		path, err := config.CreateProfile(label, seed)
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		fmt.Printf("Run `novelgrab config switch %s` to use it.\n", label)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&addFrom, "from", "", "copy settings from this profile")
	configAddCmd.Flags().StringVar(&addURL, "url", "", "default novel URL for the new profile")
	configAddCmd.Flags().StringVar(&addFormat, "format", "", "output format for the new profile")
	configCmd.AddCommand(configAddCmd)
}
