package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/octonote/pkg/core"
)

var transferCmd = &cobra.Command{
	Use:   "transfer [from] [to]",
	Short: "Move every note of a user to another user",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		res, err := app.Service.TransferAll(ctx, args[0], args[1])
		if err != nil {
			var terr *core.TransferError
			if core.As(err, &terr) {
				fmt.Printf("%d notes transferred before the failure.\n", terr.Transferred)
			}
			fatal("Transfer failed", err)
		}

		if res.Transferred == 0 {
			fmt.Println("No notes to transfer.")
			return
		}
		fmt.Printf("Transferred %d notes from %s to %s.\n", res.Transferred, res.From, res.To)
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
}
