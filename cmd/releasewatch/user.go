package main

import (
	"fmt"

	"github.com/aleister1102/releasewatch/internal/users"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage web interface accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := openUserStore(cmd)
				if err != nil {
					return err
				}
				list, err := store.List()
				if err != nil {
					return err
				}
				for _, u := range list {
					fmt.Printf("%-4s %s\n", u.ID, u.Username)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <username> <password>",
			Short: "Create an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openUserStore(cmd)
				if err != nil {
					return err
				}
				u, err := store.Add(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Println(color.GreenString("Added user %s (id %s)", u.Username, u.ID))
				return nil
			},
		},
		&cobra.Command{
			Use:   "passwd <username> <password>",
			Short: "Change the password of an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openUserStore(cmd)
				if err != nil {
					return err
				}
				if err := store.ChangePassword(args[0], args[1]); err != nil {
					return err
				}
				fmt.Println(color.GreenString("Password for %s changed", args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <username>",
			Short: "Delete an account (the admin account cannot be deleted)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openUserStore(cmd)
				if err != nil {
					return err
				}
				if err := store.Delete(args[0]); err != nil {
					return err
				}
				fmt.Println(color.GreenString("Deleted user %s", args[0]))
				return nil
			},
		},
	)
	return cmd
}

func openUserStore(cmd *cobra.Command) (*users.Store, error) {
	cfg, _, log, err := loadConfig(configPathFrom(cmd))
	if err != nil {
		return nil, err
	}
	return users.NewStore(cfg.WebConfig.UsersFile, log)
}
