package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/silverlode/fleetpanel/internal/service"
	"github.com/silverlode/fleetpanel/internal/support/format"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show a consistent snapshot of fleet and host metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.DB().Close()

			logger := newLogger(cfg)
			svc := service.NewSystemService(store.Stats(), nil, logger, func() int64 { return time.Now().Unix() })
			stats, err := svc.Stats(cmd.Context(), service.SystemOperator)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "cpu\t%.1f%% of %d cores\n", stats.Host.CPUPercent, stats.Host.CPUCores)
			fmt.Fprintf(w, "memory\t%s / %s\n", format.Bytes(int64(stats.Host.MemUsed)), format.Bytes(int64(stats.Host.MemTotal)))
			fmt.Fprintf(w, "users\t%d total (%d active, %d on hold, %d limited, %d expired, %d disabled)\n",
				stats.TotalUsers, stats.ActiveUsers, stats.OnHoldUsers, stats.LimitedUsers, stats.ExpiredUsers, stats.DisabledUsers)
			fmt.Fprintf(w, "bandwidth\t%s in / %s out\n", format.Bytes(stats.IncomingBandwidth), format.Bytes(stats.OutgoingBandwidth))
			fmt.Fprintf(w, "nodes\t%d / %d online\n", stats.NodesOnline, stats.NodesTotal)
			fmt.Fprintf(w, "admins\t%d\n", stats.TotalAdmins)
			return w.Flush()
		},
	})
}
