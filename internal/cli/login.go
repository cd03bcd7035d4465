package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/docman/backend/internal/cli/api"
	"github.com/docman/backend/internal/cli/config"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Authenticate with email and password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := readPassword()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		var resp api.Response[api.TokenResponse]
		err = apiClient.Post("/login/access-token", map[string]string{
			"username": args[0],
			"password": password,
		}, &resp)
		if err != nil {
			return fmt.Errorf("logging in: %w", err)
		}

		if resp.Data.MFARequired {
			fmt.Fprint(os.Stderr, "TOTP code: ")
			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading code: %w", err)
			}
			if err := apiClient.Post("/login/mfa", map[string]string{
				"mfaToken": resp.Data.MFAToken,
				"code":     strings.TrimSpace(code),
			}, &resp); err != nil {
				return fmt.Errorf("verifying code: %w", err)
			}
		}

		cfg.Token = resp.Data.AccessToken
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println("Logged in.")
		return nil
	},
}

func readPassword() (string, error) {
	data, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
