package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/auth"
	"github.com/zulandar/induction/internal/permission"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login profiles for the profile auth provider",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newUserAddCmd() *cobra.Command {
	var (
		configPath string
		opts       auth.ProfileOpts
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a login profile",
		Long:  "Creates a profile with a bcrypt-hashed password. Roles: " + strings.Join(permission.Roles(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Username = args[0]
			if opts.Password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				opts.Password = pw
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := auth.CreateProfile(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", p.Username, permission.Label(p.Role))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Role, "role", permission.RoleStaff1, "role")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&opts.EmployeeID, "employee-id", "", "employee id")
	cmd.Flags().StringVar(&opts.Department, "department", "", "department")
	return cmd
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List login profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			users, err := auth.ListProfiles(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tROLE\tEMPLOYEE ID\tDEPARTMENT")
			for _, u := range users {
				emp := "-"
				if u.EmployeeID != nil {
					emp = *u.EmployeeID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Username, permission.Label(u.Role), emp, orDash(u.Department))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
