package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/privacy-cli/internal/publish"
)

var (
	slugID     string
	slugTitle  string
	slugDecode string
)

var slugCmd = &cobra.Command{
	Use:   "slug",
	Short: "Print the page slug for an order id and title",
	RunE: func(cmd *cobra.Command, args []string) error {
		if slugDecode != "" {
			id, ok := publish.OrderIDFromSlug(slugDecode)
			if !ok {
				return eris.Errorf("slug %q has no encoded order id", slugDecode)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), publish.Slug(slugID, slugTitle))
		return nil
	},
}

func init() {
	slugCmd.Flags().StringVar(&slugID, "id", "", "order id")
	slugCmd.Flags().StringVar(&slugTitle, "title", "", "app title")
	slugCmd.Flags().StringVar(&slugDecode, "decode", "", "print the order id encoded in this slug")
	rootCmd.AddCommand(slugCmd)
}
