package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/certificate"
)

func newCertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Certificate management commands",
	}

	cmd.AddCommand(newCertListCmd())
	cmd.AddCommand(newCertAddCmd())
	cmd.AddCommand(newCertVerifyCmd())
	cmd.AddCommand(newCertExpiringCmd())
	return cmd
}

// parseDate parses an optional YYYY-MM-DD flag value.
func parseDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("--%s %q is not YYYY-MM-DD", flag, value)
	}
	return &d, nil
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func newCertListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <train-id>",
		Short: "List a train's certificates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trainID, err := parseID("train", args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			certs, err := certificate.ListForTrain(gormDB, trainID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(certs) == 0 {
				fmt.Fprintln(out, "No certificates found.")
				return nil
			}
			now := time.Now()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tISSUED\tEXPIRES\tVERIFIED\tEXPIRED")
			for _, c := range certs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%t\n",
					c.ID, c.Name, dateOrDash(c.IssueDate), dateOrDash(c.ExpiryDate), c.IsVerified, c.IsExpired(now))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newCertAddCmd() *cobra.Command {
	var (
		configPath string
		trainID    uint
		name       string
		file       string
		issued     string
		expires    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Attach a certificate to a train",
		RunE: func(cmd *cobra.Command, args []string) error {
			issueDate, err := parseDate("issued", issued)
			if err != nil {
				return err
			}
			expiryDate, err := parseDate("expires", expires)
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			c, err := certificate.Create(gormDB, certificate.CreateOpts{
				TrainID:    trainID,
				Name:       name,
				File:       file,
				IssueDate:  issueDate,
				ExpiryDate: expiryDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created certificate %d: %s\n", c.ID, c.Name)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&trainID, "train", 0, "train id (required)")
	cmd.Flags().StringVar(&name, "name", "", "certificate name (required)")
	cmd.Flags().StringVar(&file, "file", "", "storage key of the scanned document")
	cmd.Flags().StringVar(&issued, "issued", "", "issue date, YYYY-MM-DD")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry date, YYYY-MM-DD")
	cmd.MarkFlagRequired("train")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newCertVerifyCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Mark a certificate as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("certificate", args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := certificate.Verify(gormDB, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Certificate %d verified\n", id)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newCertExpiringCmd() *cobra.Command {
	var (
		configPath string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List certificates expired or expiring soon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.Alerts.ExpiryWindow
			}
			rows, err := certificate.Expiring(gormDB, time.Now(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No certificates expiring within %d days.\n", days)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTRAIN\tNAME\tEXPIRES\tDAYS LEFT")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
					r.Certificate.ID, r.TrainNumber, r.Certificate.Name, dateOrDash(r.Certificate.ExpiryDate), r.DaysLeft)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVar(&days, "days", 0, "look-ahead window in days (default from config)")
	return cmd
}
