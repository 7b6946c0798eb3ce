package cli

import (
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of TrailTrigger",
	// no configuration needed
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
