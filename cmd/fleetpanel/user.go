package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
	"github.com/silverlode/fleetpanel/internal/service"
	"github.com/silverlode/fleetpanel/internal/support/format"
	"github.com/spf13/cobra"
)

func init() {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage proxy users",
	}

	userCmd.AddCommand(newUserListCmd())
	userCmd.AddCommand(newUserCreateCmd())
	userCmd.AddCommand(newUserUpdateCmd())
	userCmd.AddCommand(newUserDeleteCmd())
	userCmd.AddCommand(newUserResetUsageCmd())
	userCmd.AddCommand(newUserActivateCmd())
	rootCmd.AddCommand(userCmd)
}

func userService() (service.UserService, func(), error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	svc := service.NewUserService(store.Users(), store.Admins(), store.Usage(), logger)
	return svc, func() { store.DB().Close() }, nil
}

func newUserListCmd() *cobra.Command {
	var offset, limit int
	var status, admin string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := userService()
			if err != nil {
				return err
			}
			defer closeFn()

			input := service.UserListInput{Offset: offset, Limit: limit}
			if status != "" {
				s := repository.UserStatus(status)
				input.Status = &s
			}
			if admin != "" {
				input.Admin = &admin
			}
			result, err := svc.List(cmd.Context(), service.SystemOperator, input)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tSTATUS\tOWNER\tUSED\tLIMIT\tEXPIRES\tCREATED")
			for _, user := range result.Users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					user.Username,
					format.StatusLabel(string(user.Status)),
					user.Owner,
					format.Bytes(user.UsedTraffic),
					format.OptionalBytes(user.DataLimit),
					format.OptionalUnixDate(user.ExpireAt),
					format.UnixDate(user.CreatedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("total: %d\n", result.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	cmd.Flags().StringVar(&status, "status", "", "Filter by derived status (active|on_hold|limited|expired|disabled)")
	cmd.Flags().StringVar(&admin, "admin", "", "Filter by owning admin")
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var dataLimit int64
	var expireDays int
	var onHold bool
	var note string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := userService()
			if err != nil {
				return err
			}
			defer closeFn()

			input := service.UserCreateInput{Username: args[0], OnHold: onHold, Note: note}
			if cmd.Flags().Changed("data-limit") {
				input.DataLimit = &dataLimit
			}
			if cmd.Flags().Changed("expire-days") {
				expireAt := time.Now().Add(time.Duration(expireDays) * 24 * time.Hour).Unix()
				input.ExpireAt = &expireAt
			}
			view, err := svc.Create(cmd.Context(), service.SystemOperator, input)
			if err != nil {
				return err
			}
			fmt.Printf("user %q created, status %s\n", view.Username, view.Status)
			return nil
		},
	}
	cmd.Flags().Int64Var(&dataLimit, "data-limit", 0, "Traffic quota in bytes, omit for unlimited")
	cmd.Flags().IntVar(&expireDays, "expire-days", 0, "Days until expiry, omit for never")
	cmd.Flags().BoolVar(&onHold, "on-hold", false, "Defer activation until first traffic")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var dataLimit int64
	var expireDays int
	var clearLimit, clearExpire, disabled bool
	var note string
	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := userService()
			if err != nil {
				return err
			}
			defer closeFn()

			input := service.UserModifyInput{
				ClearDataLimit: clearLimit,
				ClearExpire:    clearExpire,
			}
			if cmd.Flags().Changed("data-limit") {
				input.DataLimit = &dataLimit
			}
			if cmd.Flags().Changed("expire-days") {
				expireAt := time.Now().Add(time.Duration(expireDays) * 24 * time.Hour).Unix()
				input.ExpireAt = &expireAt
			}
			if cmd.Flags().Changed("disabled") {
				input.Disabled = &disabled
			}
			if cmd.Flags().Changed("note") {
				input.Note = &note
			}
			view, err := svc.Modify(cmd.Context(), service.SystemOperator, args[0], input)
			if err != nil {
				return err
			}
			fmt.Printf("user %q updated, status %s\n", view.Username, view.Status)
			return nil
		},
	}
	cmd.Flags().Int64Var(&dataLimit, "data-limit", 0, "New traffic quota in bytes")
	cmd.Flags().BoolVar(&clearLimit, "clear-data-limit", false, "Remove the traffic quota")
	cmd.Flags().IntVar(&expireDays, "expire-days", 0, "New expiry in days from now")
	cmd.Flags().BoolVar(&clearExpire, "clear-expire", false, "Remove the expiry")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Disable or re-enable the user")
	cmd.Flags().StringVar(&note, "note", "", "Replace the note")
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user and its usage ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Printf("delete user %q? [y/N]: ", args[0])
				var answer string
				fmt.Scanln(&answer)
				if answer != "y" && answer != "Y" {
					fmt.Println("aborted")
					return nil
				}
			}
			svc, closeFn, err := userService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Remove(cmd.Context(), service.SystemOperator, args[0]); err != nil {
				return err
			}
			fmt.Printf("user %q deleted\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newUserResetUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-usage <username>",
		Short: "Zero the traffic counters of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := userService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.ResetUsage(cmd.Context(), service.SystemOperator, args[0]); err != nil {
				return err
			}
			fmt.Printf("usage of user %q reset\n", args[0])
			return nil
		},
	}
}

func newUserActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <username>",
		Short: "End the on-hold period of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := userService()
			if err != nil {
				return err
			}
			defer closeFn()

			view, err := svc.Activate(cmd.Context(), service.SystemOperator, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("user %q is now %s\n", view.Username, view.Status)
			return nil
		},
	}
}
