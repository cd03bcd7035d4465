package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/docman/backend/internal/cli/api"
	"github.com/spf13/cobra"
)

var (
	flagQuery     string
	flagTags      []string
	flagStartDate string
	flagEndDate   string
	flagSkip      int
	flagLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search documents visible to you",
	Long: `Search your own documents plus anything shared with you.

  docmanctl search -q "quarterly report"
  docmanctl search --tag finance --tag 2026 --start-date 2026-01-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		params := url.Values{}
		if flagQuery != "" {
			params.Set("q", flagQuery)
		}
		for _, tag := range flagTags {
			params.Add("tag", tag)
		}
		if flagStartDate != "" {
			params.Set("start_date", flagStartDate)
		}
		if flagEndDate != "" {
			params.Set("end_date", flagEndDate)
		}
		if flagSkip > 0 {
			params.Set("skip", fmt.Sprint(flagSkip))
		}
		if flagLimit > 0 {
			params.Set("limit", fmt.Sprint(flagLimit))
		}

		var resp api.Response[[]api.Document]
		if err := apiClient.Get("/documents/search/", params, &resp); err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(resp.Data)
		}

		for _, doc := range resp.Data {
			tags := ""
			if len(doc.Tags) > 0 {
				tags = "  [" + strings.Join(doc.Tags, ", ") + "]"
			}
			fmt.Printf("%s  %s%s\n", doc.ID, doc.Title, tags)
		}
		if resp.Pagination != nil {
			fmt.Printf("%d of %d documents\n", len(resp.Data), resp.Pagination.Total)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "Substring to match against title or description")
	searchCmd.Flags().StringArrayVar(&flagTags, "tag", nil, "Tag a document must carry (repeatable, all must match)")
	searchCmd.Flags().StringVar(&flagStartDate, "start-date", "", "Earliest creation date (inclusive)")
	searchCmd.Flags().StringVar(&flagEndDate, "end-date", "", "Latest creation date (inclusive)")
	searchCmd.Flags().IntVar(&flagSkip, "skip", 0, "Rows to skip")
	searchCmd.Flags().IntVar(&flagLimit, "limit", 0, "Page size (server default 10)")
	rootCmd.AddCommand(searchCmd)
}
