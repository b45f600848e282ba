package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		users, err := app.Service.ListUsers(ctx)
		if err != nil {
			fatal("Error listing users", err)
		}
		for _, u := range users {
			fmt.Println(u)
		}
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if err := app.Service.CreateUser(ctx, args[0]); err != nil {
			fatal("Failed to add user", err)
		}
		fmt.Printf("User '%s' created.\n", args[0])
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a user that owns no notes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if err := app.Service.DeleteUser(ctx, args[0]); err != nil {
			fatal("Failed to delete user", err)
		}
		fmt.Printf("User '%s' deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersDeleteCmd)
}
