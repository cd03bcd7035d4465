package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/docman/backend/internal/cli/api"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.User]
		if err := apiClient.Get("/me", nil, &resp); err != nil {
			return fmt.Errorf("fetching profile: %w", err)
		}

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(resp.Data)
		}

		fmt.Printf("%s <%s>\n", resp.Data.FullName, resp.Data.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
