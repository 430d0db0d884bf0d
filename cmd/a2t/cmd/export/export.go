package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"audio-whisper/internal/app"
	"audio-whisper/internal/app/archive/export"
)

var outputFilePath string

func init() {
	Cmd.Flags().StringVarP(&outputFilePath, "output", "o", "", "set output xlsx file path")

	Cmd.MarkFlagRequired("output")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived job outcomes to excel",
	Long: `Export archived job outcomes to excel

- Exports every archived outcome, currently does not support a limited number`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		dao, cleanup, err := app.InitializeArchive(configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		entries, err := dao.GetAll()
		if err != nil {
			return err
		}

		if err := export.ToExcel(entries, outputFilePath); err != nil {
			return err
		}
		fmt.Printf("export finished, exported file path: %v\n", outputFilePath)
		return nil
	},
}
