package cli

import (
	"fmt"
	"net/url"

	"github.com/docman/backend/internal/cli/api"
	"github.com/spf13/cobra"
)

var flagPermission string

var shareCmd = &cobra.Command{
	Use:   "share <document-id> <user-email>",
	Short: "Share a document with a user",
	Long: `Grant another user access to one of your documents.

  docmanctl share <document-id> alice@example.com
  docmanctl share <document-id> alice@example.com --permission write`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		// Resolve the recipient by email.
		email := args[1]
		params := url.Values{"q": {email}}
		var searchResp api.Response[[]api.User]
		if err := apiClient.Get("/users/search", params, &searchResp); err != nil {
			return fmt.Errorf("searching users: %w", err)
		}

		var targetUser *api.User
		for i, u := range searchResp.Data {
			if u.Email == email {
				targetUser = &searchResp.Data[i]
				break
			}
		}
		if targetUser == nil {
			return fmt.Errorf("user not found: %s", email)
		}

		body := map[string]interface{}{
			"documentID": args[0],
			"userID":     targetUser.ID,
			"permission": flagPermission,
		}

		var resp api.Response[api.Share]
		if err := apiClient.Post("/shares/", body, &resp); err != nil {
			return fmt.Errorf("sharing: %w", err)
		}

		fmt.Printf("Shared with %s (%s permission)\n", email, resp.Data.Permission)
		return nil
	},
}

var unshareCmd = &cobra.Command{
	Use:   "unshare <share-id>",
	Short: "Revoke a sharing grant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[map[string]string]
		if err := apiClient.Delete("/shares/"+args[0], &resp); err != nil {
			return fmt.Errorf("revoking: %w", err)
		}

		fmt.Println("Share revoked.")
		return nil
	},
}

func init() {
	shareCmd.Flags().StringVar(&flagPermission, "permission", "read", "Permission level: read, write")
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(unshareCmd)
}
