package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/silverlode/fleetpanel/internal/service"
	"github.com/silverlode/fleetpanel/internal/support/format"
	"github.com/silverlode/fleetpanel/internal/support/hash"
	"github.com/spf13/cobra"
)

func init() {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the operator directory",
	}

	adminCmd.AddCommand(newAdminListCmd())
	adminCmd.AddCommand(newAdminCreateCmd())
	adminCmd.AddCommand(newAdminUpdateCmd())
	adminCmd.AddCommand(newAdminDeleteCmd())
	adminCmd.AddCommand(newAdminResetUsageCmd())
	adminCmd.AddCommand(newAdminToggleUsersCmd("disable-users", "Disable every user owned by an admin", true))
	adminCmd.AddCommand(newAdminToggleUsersCmd("activate-users", "Re-enable every user owned by an admin", false))
	rootCmd.AddCommand(adminCmd)
}

// adminService builds the directory service wired against the local database.
func adminService() (service.AdminService, func(), error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	hasher, err := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		store.DB().Close()
		return nil, nil, err
	}
	logger := newLogger(cfg)
	svc := service.NewAdminService(store.Admins(), store.Users(), hasher, nil, logger)
	return svc, func() { store.DB().Close() }, nil
}

func newAdminListCmd() *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := adminService()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.List(cmd.Context(), service.SystemOperator, service.AdminListInput{Offset: offset, Limit: limit})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tSUDO\tDISABLED\tUSERS\tUSED TRAFFIC\tCREATED")
			for _, admin := range result.Admins {
				fmt.Fprintf(w, "%s\t%v\t%v\t%d\t%s\t%s\n",
					admin.Username, admin.IsSudo, admin.IsDisabled, admin.UsersCount,
					format.Bytes(admin.UsedTraffic), format.UnixDate(admin.CreatedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("total: %d\n", result.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size, 0 means all")
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var password, webhookURL string
	var sudo bool
	var telegramID int64
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := adminService()
			if err != nil {
				return err
			}
			defer closeFn()

			input := service.AdminCreateInput{
				Username:   args[0],
				Password:   password,
				IsSudo:     sudo,
				WebhookURL: webhookURL,
			}
			if cmd.Flags().Changed("telegram-id") {
				input.TelegramID = &telegramID
			}
			view, err := svc.Create(cmd.Context(), service.SystemOperator, input)
			if err != nil {
				return err
			}
			fmt.Printf("admin %q created (sudo=%v)\n", view.Username, view.IsSudo)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Login password (required)")
	cmd.Flags().BoolVar(&sudo, "sudo", false, "Grant sudo rights")
	cmd.Flags().Int64Var(&telegramID, "telegram-id", 0, "Telegram chat for notifications")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook endpoint for notifications")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminUpdateCmd() *cobra.Command {
	var password, webhookURL string
	var sudo, disabled bool
	var telegramID int64
	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Update an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := adminService()
			if err != nil {
				return err
			}
			defer closeFn()

			input := service.AdminModifyInput{}
			if cmd.Flags().Changed("password") {
				input.Password = &password
			}
			if cmd.Flags().Changed("sudo") {
				input.IsSudo = &sudo
			}
			if cmd.Flags().Changed("disabled") {
				input.IsDisabled = &disabled
			}
			if cmd.Flags().Changed("telegram-id") {
				input.TelegramID = &telegramID
			}
			if cmd.Flags().Changed("webhook-url") {
				input.WebhookURL = &webhookURL
			}
			view, err := svc.Modify(cmd.Context(), service.SystemOperator, args[0], input)
			if err != nil {
				return err
			}
			fmt.Printf("admin %q updated\n", view.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password")
	cmd.Flags().BoolVar(&sudo, "sudo", false, "Grant or revoke sudo rights")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Disable or re-enable the account")
	cmd.Flags().Int64Var(&telegramID, "telegram-id", 0, "Telegram chat for notifications")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook endpoint for notifications")
	return cmd
}

func newAdminDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Printf("delete admin %q? [y/N]: ", args[0])
				var answer string
				fmt.Scanln(&answer)
				if answer != "y" && answer != "Y" {
					fmt.Println("aborted")
					return nil
				}
			}
			svc, closeFn, err := adminService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Remove(cmd.Context(), service.SystemOperator, args[0]); err != nil {
				return err
			}
			fmt.Printf("admin %q deleted\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newAdminResetUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-usage <username>",
		Short: "Zero the aggregate traffic counter of an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := adminService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.ResetUsage(cmd.Context(), service.SystemOperator, args[0]); err != nil {
				return err
			}
			fmt.Printf("usage of admin %q reset\n", args[0])
			return nil
		},
	}
}

func newAdminToggleUsersCmd(use, short string, disable bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := adminService()
			if err != nil {
				return err
			}
			defer closeFn()

			var affected int64
			if disable {
				affected, err = svc.DisableUsers(cmd.Context(), service.SystemOperator, args[0])
			} else {
				affected, err = svc.ActivateUsers(cmd.Context(), service.SystemOperator, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("%d users affected\n", affected)
			return nil
		},
	}
}
