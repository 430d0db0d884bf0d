package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"audio-whisper/cmd/a2t/cmd/enhance"
	"audio-whisper/cmd/a2t/cmd/enqueue"
	"audio-whisper/cmd/a2t/cmd/export"
	"audio-whisper/cmd/a2t/cmd/fetch"
	"audio-whisper/cmd/a2t/cmd/jobs"
	"audio-whisper/cmd/a2t/cmd/search"
	"audio-whisper/cmd/a2t/cmd/serve"
	"audio-whisper/cmd/a2t/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "a2t",
	Short: "A durable job queue for transcribing audio files to text",
	Long: `A durable job queue for transcribing audio files to text.

- Enqueue audio files and let the worker transcribe them one at a time
- Every job lives in its own directory and survives restarts
- Run serve to process jobs continuously and expose the HTTP API`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(enqueue.Cmd)
	rootCmd.AddCommand(jobs.Cmd)
	rootCmd.AddCommand(search.Cmd)
	rootCmd.AddCommand(enhance.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(fetch.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.audio-whisper/queue.yaml)")
}
