package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trainerd",
	Short: "qwex trainer server",
	Long:  `trainerd serves the run configure/execute API and the form endpoint used by the trainer front end.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
