package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/config"
	"github.com/sells-group/privacy-cli/internal/fetcher"
	"github.com/sells-group/privacy-cli/internal/harvest"
	"github.com/sells-group/privacy-cli/internal/pipeline"
	"github.com/sells-group/privacy-cli/internal/publish"
	"github.com/sells-group/privacy-cli/internal/record"
	"github.com/sells-group/privacy-cli/internal/table"
)

var (
	runRecordsURL  string
	runRecordsFile string
	runCookie      string
	runTemplate    string
	runWorkDir     string
	runEmailDomain string
	runNoPush      bool
	runNoPublish   bool
	runJSON        bool
	runPrintText   bool
)

var runCmd = &cobra.Command{
	Use:   "run [ORDER_ID]",
	Short: "Build and publish the privacy page for one order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var orderID string
		if len(args) == 1 {
			orderID = args[0]
		} else {
			id, err := promptOrderID(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			orderID = id
		}
		if strings.TrimSpace(orderID) == "" {
			return eris.Wrap(pipeline.ErrNoID, "example: privacy-cli run IGT1128")
		}

		applyRunFlags(cmd, cfg)
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		if !runNoPublish {
			if err := cfg.Validate("publish"); err != nil {
				return err
			}
		}

		p, err := buildPipeline(cfg, runNoPublish, runNoPush)
		if err != nil {
			return err
		}

		result, runErr := p.Run(ctx, orderID)
		if result != nil {
			if err := printRunResult(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		}
		if runErr != nil {
			zap.L().Error("run failed",
				zap.String("order_id", orderID),
				zap.String("kind", pipeline.Classify(runErr).String()),
				zap.Error(runErr),
			)
			return runErr
		}
		return nil
	},
}

// promptOrderID asks for the order id on in. EOF counts as no id.
func promptOrderID(in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Order id (e.g. IGT1128): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", eris.Wrap(err, "read order id")
	}
	return strings.TrimSpace(line), nil
}

// applyRunFlags copies explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("records-url") {
		c.Table.RecordsURL = runRecordsURL
	}
	if flags.Changed("records-file") {
		c.Table.RecordsFile = runRecordsFile
	}
	if flags.Changed("cookie") {
		c.Table.Cookie = runCookie
	}
	if flags.Changed("template") {
		c.Template.Path = runTemplate
	}
	if flags.Changed("work-dir") {
		c.Output.WorkDir = runWorkDir
	}
	if flags.Changed("email-domain") {
		c.Harvest.EmailDomain = runEmailDomain
	}
}

func buildPipeline(c *config.Config, noPublish, noPush bool) (*pipeline.Pipeline, error) {
	cookie, err := table.Cookie(c.Table)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	cookieHosts := map[string]http.Header{}
	if cookie != "" {
		headers.Set("Cookie", cookie)
		for _, h := range table.CookieHosts(c.Table) {
			cookieHosts[h] = headers
		}
	}

	tableFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Harvest.UserAgent,
		Timeout:    time.Duration(c.Table.TimeoutSecs) * time.Second,
		MaxRetries: c.Table.MaxRetries,
		Headers:    headers,
	})
	pageFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:     c.Harvest.UserAgent,
		Timeout:       time.Duration(c.Harvest.TimeoutSecs) * time.Second,
		MaxRetries:    c.Harvest.MaxRetries,
		RatePerSecond: c.Harvest.RatePerSecond,
		HostHeaders:   cookieHosts,
	})

	renderer, err := newRenderer(c.Template)
	if err != nil {
		return nil, err
	}

	var pub publish.Publisher
	if !noPublish {
		pub, err = publish.New(c.Pages, nil, noPush)
		if err != nil {
			return nil, err
		}
	}

	return pipeline.New(
		table.NewClient(c.Table, tableFetcher),
		harvest.New(pageFetcher, harvest.Options{
			EmailDomain: c.Harvest.EmailDomain,
			EarlyExit:   c.Harvest.EarlyExit,
		}),
		renderer,
		pub,
		pipeline.Options{
			Fields: record.Fields{
				OrderID: c.Fields.OrderID,
				AppName: c.Fields.AppName,
				Links:   c.Fields.Links,
			},
			TemplatePath: c.Template.Path,
			WorkDir:      c.Output.WorkDir,
			HTMLFile:     c.Output.HTMLFile,
			TextFile:     c.Output.TextFile,
		},
	), nil
}

func printRunResult(w io.Writer, r *pipeline.Result) error {
	if runJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	_, _ = fmt.Fprintf(w, "Order:   %s\n", r.OrderID)
	_, _ = fmt.Fprintf(w, "App:     %s\n", r.AppName)
	_, _ = fmt.Fprintf(w, "Company: %s\n", r.CompanyName)
	_, _ = fmt.Fprintf(w, "Email:   %s\n", r.Email)
	for _, d := range r.Warnings {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", d)
	}
	if r.HTMLPath != "" {
		_, _ = fmt.Fprintf(w, "HTML:    %s\n", r.HTMLPath)
		_, _ = fmt.Fprintf(w, "Text:    %s\n", r.TextPath)
	}
	if runPrintText && r.Page.Text != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n\n", r.Page.Text)
	}
	if r.Published != nil && r.Published.URL != "" {
		_, _ = fmt.Fprintf(w, "Page URL: %s\n", r.Published.URL)
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runRecordsURL, "records-url", "", "table API records URL (default from config)")
	runCmd.Flags().StringVar(&runRecordsFile, "records-file", "", "saved table API response to read instead of fetching")
	runCmd.Flags().StringVar(&runCookie, "cookie", "", "session cookie for the table API")
	runCmd.Flags().StringVar(&runTemplate, "template", "", "privacy policy template (default from config)")
	runCmd.Flags().StringVar(&runWorkDir, "work-dir", "", "directory for privacy_policy.html and .txt")
	runCmd.Flags().StringVar(&runEmailDomain, "email-domain", "", "domain of contact emails to harvest")
	runCmd.Flags().BoolVar(&runNoPush, "no-push", false, "write the page into the site tree without committing or pushing")
	runCmd.Flags().BoolVar(&runNoPublish, "no-publish", false, "stop after writing the local artifacts")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run result as JSON")
	runCmd.Flags().BoolVar(&runPrintText, "print-text", false, "print the plain-text policy")
	rootCmd.AddCommand(runCmd)
}
