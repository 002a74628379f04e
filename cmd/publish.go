package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/privacy-cli/internal/publish"
)

var (
	publishTitle         string
	publishID            string
	publishContentFile   string
	publishContentIsHTML bool
	publishSlug          string
	publishCommitMessage string
	publishRepoDir       string
	publishNoPush        bool
	publishNoLanding     bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Write a page into the site tree and push it",
	RunE: func(cmd *cobra.Command, args []string) error {
		// This command is the git publisher itself; pages.command only
		// applies to the run pipeline.
		cfg.Pages.Publisher = "git"
		if cmd.Flags().Changed("repo-dir") {
			cfg.Pages.RepoDir = publishRepoDir
		}
		if publishNoLanding {
			cfg.Pages.Landing = false
		}
		if err := cfg.Validate("publish"); err != nil {
			return err
		}

		content, err := os.ReadFile(publishContentFile)
		if err != nil {
			return eris.Wrapf(err, "read content file %s", publishContentFile)
		}
		isHTML := publishContentIsHTML
		if !cmd.Flags().Changed("content-is-html") {
			ext := strings.ToLower(filepath.Ext(publishContentFile))
			isHTML = ext == ".html" || ext == ".htm"
		}

		pub, err := publish.New(cfg.Pages, nil, publishNoPush)
		if err != nil {
			return err
		}
		res, err := pub.Publish(cmd.Context(), publish.Page{
			Title:         publishTitle,
			OrderID:       publishID,
			Slug:          publishSlug,
			Content:       string(content),
			ContentIsHTML: isHTML,
			ContentFile:   publishContentFile,
			CommitMessage: publishCommitMessage,
		})
		if res != nil {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", res.Path)
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Page URL: %s\n", res.URL)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishTitle, "title", publish.DefaultSlug, "page title, used in the slug")
	publishCmd.Flags().StringVar(&publishID, "id", "", "order id encoded into the slug")
	publishCmd.Flags().StringVar(&publishContentFile, "content-file", "", "file holding the page content (required)")
	publishCmd.Flags().BoolVar(&publishContentIsHTML, "content-is-html", false, "treat the content as HTML (default: by file extension)")
	publishCmd.Flags().StringVar(&publishSlug, "slug", "", "explicit page slug")
	publishCmd.Flags().StringVar(&publishCommitMessage, "commit-message", "", "git commit message")
	publishCmd.Flags().StringVar(&publishRepoDir, "repo-dir", "", "site repository (default from config)")
	publishCmd.Flags().BoolVar(&publishNoPush, "no-push", false, "only write files, do not commit or push")
	publishCmd.Flags().BoolVar(&publishNoLanding, "no-landing", false, "leave the root index.html alone")
	_ = publishCmd.MarkFlagRequired("content-file")
	rootCmd.AddCommand(publishCmd)
}
