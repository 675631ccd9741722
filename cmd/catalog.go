package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubbub-im/hubbub/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the workspace catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s (default %s)\n\n", cfg.Workspace.Title, cfg.Workspace.DefaultTarget)
		fmt.Println("Channels:")
		for _, ch := range cfg.Workspace.Channels {
			fmt.Printf("  #%-14s %s\n", ch.Slug, ch.Title)
		}
		fmt.Println("\nUsers:")
		for _, u := range cfg.Workspace.Users {
			label := ""
			if u.Bot {
				label = " (bot)"
			}
			fmt.Printf("  @%-14s %s%s\n", u.Slug, u.Name, label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
