package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/fleet"
	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/permission"
	"github.com/zulandar/induction/internal/train"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train management commands",
	}

	cmd.AddCommand(newTrainListCmd())
	cmd.AddCommand(newTrainShowCmd())
	cmd.AddCommand(newTrainCreateCmd())
	cmd.AddCommand(newTrainSetCmd())
	cmd.AddCommand(newTrainDeleteCmd())
	return cmd
}

// parseID parses a positive record id argument.
func parseID(kind, arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return uint(id), nil
}

func newTrainListCmd() *cobra.Command {
	var (
		configPath string
		opts       fleet.Options
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trains in ranklist order",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			all, err := train.List(gormDB)
			if err != nil {
				return err
			}
			printTrains(cmd, fleet.Query(all, opts))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Search, "search", "", "filter by train number or name")
	cmd.Flags().StringVar(&opts.Sort, "sort", fleet.SortRank, "sort by rank, mileage or date")
	return cmd
}

func printTrains(cmd *cobra.Command, trains []models.Train) {
	out := cmd.OutOrStdout()
	if len(trains) == 0 {
		fmt.Fprintln(out, "No trains found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRANK\tNUMBER\tNAME\tSTATUS\tMILEAGE\tLAST SERVICE\tBAY")
	for _, t := range trains {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			t.ID, t.Rank, t.TrainNumber, t.TrainName, t.Status,
			t.CurrentMileage, orDash(t.ServiceDate()), orDash(t.StablingBay))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d train(s)\n", len(trains))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newTrainShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a train with its certificates and job cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("train", args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := train.GetDetail(gormDB, id)
			if err != nil {
				return err
			}
			printTrainDetail(cmd, t)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func printTrainDetail(cmd *cobra.Command, t *models.Train) {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Train:\t%s (%s)\n", t.TrainNumber, t.TrainName)
	fmt.Fprintf(w, "Status:\t%s\n", t.StatusLabel())
	fmt.Fprintf(w, "Rank:\t%d\n", t.Rank)
	fmt.Fprintf(w, "Mileage:\t%d km\n", t.CurrentMileage)
	fmt.Fprintf(w, "Last service:\t%s\n", orDash(t.ServiceDate()))
	fmt.Fprintf(w, "Stabling bay:\t%s\n", orDash(t.StablingBay))
	fmt.Fprintf(w, "Cleaning:\t%s\n", orDash(t.CleaningStatus))
	if t.StatusNotes != "" {
		fmt.Fprintf(w, "Status notes:\t%s\n", t.StatusNotes)
	}
	if t.MaintenanceNotes != "" {
		fmt.Fprintf(w, "Maintenance notes:\t%s\n", t.MaintenanceNotes)
	}
	w.Flush()

	fmt.Fprintf(out, "\nCertificates (%d):\n", len(t.Certificates))
	for _, c := range t.Certificates {
		verified := ""
		if c.IsVerified {
			verified = " [verified]"
		}
		fmt.Fprintf(out, "  #%d %s, expires %s%s\n", c.ID, c.Name, dateOrDash(c.ExpiryDate), verified)
	}
	fmt.Fprintf(out, "\nJob cards (%d):\n", len(t.JobCards))
	for _, j := range t.JobCards {
		fmt.Fprintf(out, "  #%d [%s/%s] %s\n", j.ID, j.Status, j.Priority, j.Title)
	}
}

func newTrainCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       train.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a train to the fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := train.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created train %d: %s (%s)\n", t.ID, t.TrainNumber, t.TrainName)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.TrainNumber, "number", "", "train number (required)")
	cmd.Flags().StringVar(&opts.TrainName, "name", "", "train name (required)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "ok, minor_maintenance or cannot_schedule")
	cmd.Flags().IntVar(&opts.Rank, "rank", 0, "ranklist position (default 99)")
	cmd.Flags().IntVar(&opts.CurrentMileage, "mileage", 0, "current mileage in km")
	cmd.Flags().StringVar(&opts.StablingBay, "bay", "", "stabling bay")
	cmd.Flags().StringVar(&opts.CleaningStatus, "cleaning", "", "cleaning status")
	cmd.Flags().StringVar(&opts.StatusNotes, "notes", "", "status notes")
	cmd.MarkFlagRequired("number")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newTrainSetCmd() *cobra.Command {
	var (
		configPath string
		role       string
	)

	cmd := &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Edit one train field as the given role",
		Long: `Writes a single train field after the same role check the web app applies.
Fields: ` + fmt.Sprint(train.Fields()),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("train", args[0])
			if err != nil {
				return err
			}
			if !permission.IsRole(role) {
				return fmt.Errorf("unknown role %q (valid: %v)", role, permission.Roles())
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			res, err := train.EditField(gormDB, role, id, args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s on train %s\n", args[1], res.Train.TrainNumber)
			if res.StatusChanged() {
				fmt.Fprintf(cmd.OutOrStdout(), "Status: %s -> %s\n", res.OldStatus, res.Train.Status)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&role, "role", permission.RoleAdmin, "role to edit as")
	return cmd
}

func newTrainDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a train and its certificates and job cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("train", args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := train.Delete(gormDB, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted train %d\n", id)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
