package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"whisper-api/cmd/whisperd/cmd/serve"
	"whisper-api/cmd/whisperd/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "whisperd",
	Short: "Synchronous speech-to-text HTTP service backed by whisper.cpp",
	Long: `whisperd accepts authenticated audio uploads, normalizes them with ffmpeg and
transcribes them with whisper.cpp, one job at a time, returning the text in the
same request.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
