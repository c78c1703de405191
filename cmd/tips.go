package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/cli"
)

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Tips for resisting financial FOMO",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println()
		fmt.Println(cli.RenderTitle(cli.TipsTitle))
		fmt.Println()
		fmt.Printf("  %s\n\n", cli.TipsIntro)
		for _, tip := range cli.Tips() {
			fmt.Println(cli.RenderNote(cli.Note{Text: tip.Title + ": " + tip.Body}))
		}
	},
}

func init() {
	rootCmd.AddCommand(tipsCmd)
}
