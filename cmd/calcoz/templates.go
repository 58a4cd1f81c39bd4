package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/calcoz/internal/export"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/pricing"
	"github.com/Simplici0/calcoz/internal/store"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage saved input templates",
	}
	cmd.AddCommand(
		newTemplatesListCmd(a),
		newTemplatesShowCmd(a),
		newTemplatesSaveCmd(a),
		newTemplatesDeleteCmd(a),
	)
	return cmd
}

func newTemplatesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := a.currency("")
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				templates, err := s.ListTemplates(cmd.Context())
				if err != nil {
					return err
				}
				if len(templates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no templates saved")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCOST/PIECE\tPRICE\tCREATED")
				for _, t := range templates {
					res := pricing.Calculate(t.Inputs)
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name,
						cur.Format(res.CostPerPiece), cur.Format(res.SuggestedPrice), t.CreatedAt.Format("2006-01-02"))
				}
				return tw.Flush()
			})
		},
	}
}

func newTemplatesShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template and what it costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			cur, err := a.currency("")
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				t, err := s.GetTemplate(cmd.Context(), id)
				if err != nil {
					return err
				}
				report := export.NewReport("", plan.None, cur, t.Inputs, pricing.Calculate(t.Inputs), a.now())
				if asJSON {
					return writeReportJSON(cmd.OutOrStdout(), report)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d)\n\n", t.Name, t.ID)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, line := range report.InputLines() {
					fmt.Fprintf(tw, "%s\t%s\n", line.Label, line.Text)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return printReport(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newTemplatesSaveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the given inputs as a named template",
		Args:  cobra.ExactArgs(1),
	}
	inputs := addInputFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		in, err := inputs.resolve(cmd.Context(), a, cmd.Flags())
		if err != nil {
			return err
		}
		return a.withStore(cmd.Context(), func(s *store.Store) error {
			t, err := s.SaveTemplate(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved template %q as #%d\n", t.Name, t.ID)
			return nil
		})
	}
	return cmd
}

func newTemplatesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				if err := s.DeleteTemplate(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted template #%d\n", id)
				return nil
			})
		},
	}
}

func parseTemplateID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("template id must be a positive integer, got %q", raw)
	}
	return id, nil
}
