package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriTalk/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use [profile-name]",
	Short: "Switch to a backend profile and start the app",
	Long:  `Switch to the specified backend profile and immediately start the terminal app.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		if err := cfg.SetActive(args[0]); err != nil {
			log.Fatalf("Failed to switch profile: %v", err)
		}

		runApplication()
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
