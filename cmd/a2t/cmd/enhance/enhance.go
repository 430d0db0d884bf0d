package enhance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"audio-whisper/internal/app"
	"audio-whisper/internal/app/api/gemini"
	"audio-whisper/internal/app/llm"
)

var llmModel string

func init() {
	Cmd.Flags().StringVarP(&llmModel, "model", "m", gemini.DefaultModel,
		"LLM used for rewriting (gemini-*, gpt-* or o1-*)")
}

// Cmd represents the enhance command
var Cmd = &cobra.Command{
	Use:   "enhance <job-id>",
	Short: "Rewrite a job's transcript into reader-friendly text",
	Long: `Rewrite a job's transcript into reader-friendly text.

The full transcript is sent through an LLM with a readability prompt and
the result is stored next to the job's transcription.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		q, cleanup, err := app.InitializeQueue(configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		detail, err := q.Detail(args[0])
		if err != nil {
			return err
		}
		if detail.Transcript == nil {
			return errors.New("job has no transcription result yet")
		}
		text := detail.Transcript.FullText()
		if strings.TrimSpace(text) == "" {
			return errors.New("transcription result is empty")
		}

		processor, err := llm.GetProcessor(llmModel,
			strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			strings.TrimSpace(os.Getenv("OPENAI_API_KEY")))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		enhanced, err := processor.ProcessText(ctx, text, llm.ReadabilityPrompt)
		if err != nil {
			return err
		}

		if _, err := q.UpdateReadability(args[0], enhanced); err != nil {
			return err
		}

		fmt.Println(enhanced)
		return nil
	},
}
