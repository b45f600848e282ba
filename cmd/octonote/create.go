package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	createTitle   string
	createContent string
	createUser    string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		id, err := app.Service.CreateNote(ctx, createTitle, createContent, createUser)
		if err != nil {
			fatal("Failed to create note", err)
		}
		fmt.Println(id)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createTitle, "title", "", "Note title")
	createCmd.Flags().StringVar(&createContent, "content", "", "Note content")
	createCmd.Flags().StringVar(&createUser, "user", "", "Author of the note")
}
