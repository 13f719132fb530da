package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"txScope/internal/config"
)

func runNetworks(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tNATIVE\tGAS (LOW/HIGH/EXTREME GWEI)\tRPC")
	for _, n := range cfg.Networks.All() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%g/%g/%g\t%s\n",
			n.ID, n.Name, n.NativeSymbol,
			n.Gas.LowGwei, n.Gas.HighGwei, n.Gas.ExtremeGwei,
			strings.Join(n.RPCURLs, ","),
		)
	}
	return w.Flush()
}
