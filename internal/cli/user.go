package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"users"},
	Short:   "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create an account",
	Long: `Create an account with an email and a password of at least 6 characters.

Examples:
  homedash user add alice@example.com --password secret1
  homedash user add bob@example.com --password secret1 --home homeB`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

func init() {
	userAddCmd.Flags().StringP("password", "p", "", "account password")
	userAddCmd.Flags().String("home", "", "bind the new account to this home id")
	_ = userAddCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	password, _ := cmd.Flags().GetString("password")
	homeID, _ := cmd.Flags().GetString("home")
	if password == "" {
		return errors.New("password must not be empty")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	uid, err := a.services.SignUp(args[0], password)
	if err != nil {
		return err
	}
	a.log.Debugw("user created", "uid", uid)

	resp := struct {
		UID    string `json:"uid"`
		HomeID string `json:"home_id,omitempty"`
	}{UID: uid}
	if homeID != "" {
		if resp.HomeID, err = a.services.Associate(cmd.Context(), uid, homeID); err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
