package serve

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"audio-whisper/internal/app"
)

// queueStopTimeout leaves room for an in-flight provider call to finish.
const queueStopTimeout = 5 * time.Minute

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the transcription worker and the HTTP API",
	Long: `Run the transcription worker and the HTTP API.

- Recovers unfinished jobs from the data directory on startup
- Processes queued jobs strictly one at a time
- Serves the job API on the configured host and port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		application, cleanup, err := app.InitializeApp(configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := application.Queue.Start(); err != nil {
			return err
		}
		if err := application.Server.Start(); err != nil {
			return err
		}

		log.Printf("a2t serving on %s:%d", application.Config.Server.Host, application.Config.Server.Port)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("shutting down, waiting for the in-flight job to finish")

		httpCtx, cancelHTTP := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelHTTP()
		if err := application.Server.Shutdown(httpCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}

		queueCtx, cancelQueue := context.WithTimeout(context.Background(), queueStopTimeout)
		defer cancelQueue()
		return application.Queue.Stop(queueCtx)
	},
}
