package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/octonote/pkg/core"
)

var (
	listFormat string
	listUser   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		notes, err := app.Service.ListNotes(ctx)
		if err != nil {
			fatal("Error listing notes", err)
		}

		filtered := make([]core.Summary, 0, len(notes))
		for _, n := range notes {
			if listUser != "" && n.LastEditedBy != listUser {
				continue
			}
			filtered = append(filtered, n)
		}

		err = printValue(os.Stdout, listFormat, filtered, func(w io.Writer) {
			for _, n := range filtered {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.LastEditedBy, n.LastEdited.Format("2006-01-02 15:04"), n.Title)
			}
		})
		if err != nil {
			fatal("Error writing output", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", formatText, "Output format: text, json or yaml")
	listCmd.Flags().StringVar(&listUser, "user", "", "Only notes last edited by this user")
}
