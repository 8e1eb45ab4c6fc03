package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X framer/cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "framer",
	Short:         "framer - fit images onto fixed-size padded canvases",
	Long:          "framer resizes every image in a folder onto a solid canvas of fixed size, optionally converting the format and steering the encoder quality into a file size window.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the framer version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "framer %s\n", Version)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.AddCommand(versionCmd)
}
