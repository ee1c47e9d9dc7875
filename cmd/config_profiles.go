package cmd

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/novelgrab/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different configuration profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			picked, err := pickProfile()
			if err != nil {
				return err
			}
			label = picked
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		cfg, err := config.LoadProfile(label)
		if err != nil {
			return err
		}
		fmt.Println("Switched to:", label)
		cfg.Print()
		return nil
	},
}

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename an existing labeled config (<old_label> <new_label>)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RenameConfig(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed config %q → %q\n", args[0], args[1])

		if active, _ := config.CurrentLabel(); active == args[1] {
			fmt.Println("It is still the active config.")
		}
		return nil
	},
}

// pickProfile lets the user choose a profile, showing each one's format,
// script conversion and default novel URL. Typing "/" filters by label or URL.
func pickProfile() (string, error) {
	list, err := config.ListProfiles()
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no configs available, run `novelgrab config init`")
	}

	cursor := 0
	for i, p := range list {
		if p.Active {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     "Select config",
		Items:     list,
		Size:      10,
		CursorPos: cursor,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   `▸ {{ .Label | cyan }}{{ if .Active }} (active){{ end }}`,
			Inactive: `  {{ .Label }}{{ if .Active }} (active){{ end }}`,
			Selected: `{{ "✔" | green }} {{ .Label }}`,
			Details:  `{{ .Summary | faint }}`,
		},
		Searcher: func(input string, i int) bool {
			p := list[i]
			input = strings.ToLower(input)
			return strings.Contains(strings.ToLower(p.Label), input) ||
				strings.Contains(strings.ToLower(p.DefaultURL), input)
		},
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled")
	}
	return list[idx].Label, nil
}

func init() {
	configCmd.AddCommand(configSwitchCmd)
	configCmd.AddCommand(configRenameCmd)
}
