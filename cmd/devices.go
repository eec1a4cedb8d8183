package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bavix/bletrack/internal/devices"
)

var devicesJSON bool //nolint:gochecknoglobals // cobra command flag

func newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices stored in the ledger, most recently seen first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ledger, err := newLedger(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			records := ledger.Records()
			out := cmd.OutOrStdout()

			if devicesJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(records)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tMANUFACTURER\tCOUNT\tFIRST SEEN\tLAST SEEN")

			for _, rec := range records {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					rec.ID, rec.Name, rec.Manufacturer, rec.Count,
					rec.FirstSeen.Format(devices.TimestampLayout),
					rec.LastSeen.Format(devices.TimestampLayout),
				)
			}

			summary := ledger.Summary()
			_, _ = fmt.Fprintf(tw, "\n%d devices, %d known\n", summary.Total, summary.Known())

			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&devicesJSON, "json", false, "Print records as JSON")

	return cmd
}
