package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/silverlode/fleetpanel/internal/service"
	"github.com/silverlode/fleetpanel/internal/support/format"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Manage the node fleet",
	}

	nodeCmd.AddCommand(newNodeListCmd())
	nodeCmd.AddCommand(newNodeAddCmd())
	nodeCmd.AddCommand(newNodeDeleteCmd())
	nodeCmd.AddCommand(newNodeImportCmd())
	rootCmd.AddCommand(nodeCmd)
}

func nodeService() (service.NodeService, func(), error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	svc := service.NewNodeService(store.Nodes(), logger)
	return svc, func() { store.DB().Close() }, nil
}

func newNodeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := nodeService()
			if err != nil {
				return err
			}
			defer closeFn()

			nodes, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tONLINE\tLAST SEEN\tUPLINK\tDOWNLINK")
			for _, node := range nodes {
				fmt.Fprintf(w, "%d\t%s\t%s:%d\t%v\t%s\t%s\t%s\n",
					node.ID, node.Name, node.Address, node.Port, node.IsOnline,
					format.UnixDate(node.LastSeenAt),
					format.Bytes(node.UplinkBytes), format.Bytes(node.DownlinkBytes))
			}
			return w.Flush()
		},
	}
}

func newNodeAddCmd() *cobra.Command {
	var address string
	var port int
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a node and print its API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := nodeService()
			if err != nil {
				return err
			}
			defer closeFn()

			view, err := svc.Add(cmd.Context(), service.SystemOperator, service.NodeAddInput{
				Name:    args[0],
				Address: address,
				Port:    port,
			})
			if err != nil {
				return err
			}
			// API key 只在这里展示一次，之后无法再查询。
			fmt.Printf("node %q registered with id %d\napi key: %s\n", view.Name, view.ID, view.APIKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Node address (required)")
	cmd.Flags().IntVar(&port, "port", 0, "Node port (required)")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}

func newNodeDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a node from the fleet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q", args[0])
			}
			if !yes {
				fmt.Printf("delete node %d? [y/N]: ", id)
				var answer string
				fmt.Scanln(&answer)
				if answer != "y" && answer != "Y" {
					fmt.Println("aborted")
					return nil
				}
			}
			svc, closeFn, err := nodeService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Remove(cmd.Context(), service.SystemOperator, id); err != nil {
				return err
			}
			fmt.Printf("node %d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

type nodeImportFile struct {
	Nodes []struct {
		Name    string `yaml:"name"`
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"nodes"`
}

func newNodeImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-register nodes from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var file nodeImportFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}

			svc, closeFn, err := nodeService()
			if err != nil {
				return err
			}
			defer closeFn()

			imported, failed := 0, 0
			for _, entry := range file.Nodes {
				view, err := svc.Add(cmd.Context(), service.SystemOperator, service.NodeAddInput{
					Name:    entry.Name,
					Address: entry.Address,
					Port:    entry.Port,
				})
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "skip %q: %v\n", entry.Name, err)
					continue
				}
				imported++
				fmt.Printf("node %q registered with id %d, api key %s\n", view.Name, view.ID, view.APIKey)
			}
			fmt.Printf("imported %d nodes, %d failed\n", imported, failed)
			return nil
		},
	}
}
