package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the iridium CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("iridium version %s\n", version)
		fmt.Println("https://github.com/shine15/iridium-engine")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
