package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	usernameFlag    = "username"
	passwordFlag    = "password"
	maxCaloriesFlag = "max-calories"
)

func newCreateAdminCommand(load loadFunc) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		usernameFlag: &cobraflags.StringFlag{
			Name:  usernameFlag,
			Value: "admin",
			Usage: "Username of the administrator",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Value: "",
			Usage: "Password of the administrator (required)",
		},
		maxCaloriesFlag: &cobraflags.StringFlag{
			Name:  maxCaloriesFlag,
			Value: "2000",
			Usage: "Daily calorie limit of the administrator",
		},
	}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff administrator",
		Long: `Create an Administrator account outside the API. The account is marked as
staff, so it is hidden from account listings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := flags[passwordFlag].GetString()
			if password == "" {
				return fmt.Errorf("--%s is required", passwordFlag)
			}
			maxCalories, err := strconv.Atoi(flags[maxCaloriesFlag].GetString())
			if err != nil {
				return fmt.Errorf("--%s: %w", maxCaloriesFlag, err)
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.accounts.Bootstrap(cmd.Context(), flags[usernameFlag].GetString(), password, maxCalories)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (%s)\n", account.Username, account.ID)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
