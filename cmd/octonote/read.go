package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var readFormat string

var readCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Read a note",
	Long:  `Read a note by its ID without locking it. Prints the content by default.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		note, err := app.Service.GetNote(ctx, args[0])
		if err != nil {
			fatal("Error reading note", err)
		}

		err = printValue(os.Stdout, readFormat, note, func(w io.Writer) {
			fmt.Fprint(w, note.Content)
		})
		if err != nil {
			fatal("Error writing output", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVarP(&readFormat, "format", "f", formatText, "Output format: text, json or yaml")
}
