package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/privacy-cli/internal/config"
	"github.com/sells-group/privacy-cli/internal/render"
)

var (
	renderTemplate string
	renderApp      string
	renderCompany  string
	renderEmail    string
	renderOut      string
	renderText     string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fill the privacy policy template without fetching or publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("template") {
			cfg.Template.Path = renderTemplate
		}
		if err := cfg.Validate("render"); err != nil {
			return err
		}

		r, err := newRenderer(cfg.Template)
		if err != nil {
			return err
		}
		tmpl, err := render.LoadTemplate(cfg.Template.Path)
		if err != nil {
			return err
		}

		page := r.Render(tmpl, render.Fields{App: renderApp, Company: renderCompany, Email: renderEmail})
		for _, d := range page.Warnings {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
		}

		if renderOut == "" {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), page.HTML)
		} else if err := os.WriteFile(renderOut, []byte(page.HTML), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", renderOut)
		}
		if renderText != "" {
			if err := os.WriteFile(renderText, []byte(page.Text), 0o644); err != nil {
				return eris.Wrapf(err, "write %s", renderText)
			}
		}
		return nil
	},
}

// newRenderer builds a renderer from the default slot schema, overridden by
// the configured schema file and email pattern.
func newRenderer(tc config.TemplateConfig) (*render.Renderer, error) {
	schema := render.DefaultSchema()
	if tc.SchemaPath != "" {
		s, err := render.LoadSchema(tc.SchemaPath)
		if err != nil {
			return nil, err
		}
		schema = s
	}
	if tc.EmailPattern != "" {
		schema.EmailPattern = tc.EmailPattern
	}
	return render.NewRenderer(schema)
}

func init() {
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "privacy policy template (default from config)")
	renderCmd.Flags().StringVar(&renderApp, "app", "", "application name")
	renderCmd.Flags().StringVar(&renderCompany, "company", "", "company or developer name")
	renderCmd.Flags().StringVar(&renderEmail, "email", "", "contact email")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "write the HTML here instead of stdout")
	renderCmd.Flags().StringVar(&renderText, "text", "", "also write the plain-text version here")
	rootCmd.AddCommand(renderCmd)
}
