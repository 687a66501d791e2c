package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/jobcard"
)

func newJobCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobcard",
		Aliases: []string{"job"},
		Short:   "Maintenance job card commands",
	}

	cmd.AddCommand(newJobCardCreateCmd())
	cmd.AddCommand(newJobCardListCmd())
	cmd.AddCommand(newJobCardUpdateCmd())
	return cmd
}

func newJobCardCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       jobcard.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Raise a job card against a train",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			j, err := jobcard.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created job card %d: %s [%s]\n", j.ID, j.Title, j.Priority)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&opts.TrainID, "train", 0, "train id (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "job card title (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "work description")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "low, medium, high or critical (default medium)")
	cmd.MarkFlagRequired("train")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newJobCardListCmd() *cobra.Command {
	var (
		configPath string
		filters    jobcard.ListFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job cards, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			cards, err := jobcard.List(gormDB, filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "No job cards found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTRAIN\tSTATUS\tPRIORITY\tTITLE\tRAISED")
			for _, j := range cards {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
					j.ID, j.TrainID, j.Status, j.Priority, j.Title, j.CreatedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			fmt.Fprintf(out, "\n%d job card(s)\n", len(cards))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&filters.TrainID, "train", 0, "only this train id")
	cmd.Flags().StringVar(&filters.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filters.Priority, "priority", "", "filter by priority")
	return cmd
}

func newJobCardUpdateCmd() *cobra.Command {
	var (
		configPath string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Move a job card to a new status",
		Long:  "Valid moves: pending -> in_progress|cancelled, in_progress -> completed|cancelled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("job card", args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			j, err := jobcard.UpdateStatus(gormDB, id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job card %d is now %s\n", j.ID, j.Status)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&status, "status", "", "new status (required)")
	cmd.MarkFlagRequired("status")
	return cmd
}
