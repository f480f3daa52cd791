package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/recurrence"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", rt.cfg.DBDriver)
			return nil
		},
	}
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass against the configured trackers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			syncer, err := rt.syncer(rt.services().bookings)
			if err != nil {
				return err
			}
			summaries, err := syncer.Run(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range summaries {
				fmt.Fprintln(cmd.OutOrStdout(), s.String())
			}
			return nil
		},
	}
}

func newExpandCmd() *cobra.Command {
	var req recurrence.Request

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the entries a booking submission expands to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := recurrence.Expand(req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", e.StartString(), e.EndString(), e.Type, e.Company, e.SLA)
			}
			fmt.Fprintf(out, "%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "", "booking type (hours or percent)")
	cmd.Flags().StringVar(&req.Percent, "percent", "", "percent of the working day")
	cmd.Flags().StringVar(&req.Hours, "hours", "", "planned hours")
	cmd.Flags().StringVar(&req.Repeat, "repeat", "no", "no, daily, weekly or monthly")
	cmd.Flags().StringVar(&req.Start, "start", "", "start date")
	cmd.Flags().StringVar(&req.End, "end", "", "end date")
	cmd.Flags().StringVar(&req.Company, "company", "", "company")
	cmd.Flags().StringVar(&req.SLA, "sla", "", "contract")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newWorkloadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "workload <login>",
		Short: "Print how busy an engineer is over the next week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			svc := rt.services()
			engineer, err := svc.engineers.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("engineer %q: %w", args[0], err)
			}
			percent, err := svc.bookings.ComputeWorkload(cmd.Context(), engineer.Login)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d%%\n", engineer.Login, percent)
			return nil
		},
	}
}

func newUserCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd(flags))
	return cmd
}

func newUserAddCmd(flags *globalFlags) *cobra.Command {
	var input application.UserInput
	var group string

	cmd := &cobra.Command{
		Use:   "add <login>",
		Short: "Create an account and print its generated password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			input.Login = args[0]
			input.Group = application.Group(group)
			if input.Name == "" {
				input.Name = args[0]
			}

			result, err := rt.services().users.Create(cmd.Context(), application.CreateUserParams{
				Principal: application.SystemPrincipal,
				Input:     input,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) password: %s\n", result.User.Login, result.User.Group, result.GeneratedPassword)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "engineer, focus-manager, manager, admin or super-admin")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name (defaults to the login)")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number for notifications")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
