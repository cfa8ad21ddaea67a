package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/cashflow-ledger/internal/csvimport"
	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/scenario"
)

func (a *app) snapshotCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show net worth, cashflow and the asset and liability columns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.st.Snapshot()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, snap)
			}
			l, err := a.st.Ledger()
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, renderSnapshot(a.scope, snap, l, a.currency))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func (a *app) importCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv FILE",
		Short: "Append transactions from a date,description,amount,category CSV",
		Long: "Append transactions from a CSV file. Use - to read standard input.\n" +
			"Rows identical to an existing transaction are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			n, err := csvimport.New().Import(cmd.Context(), a.st, in, domain.DateOf(a.now()))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(fmt.Sprintf("Imported %d transactions into %s", n, a.scope)))
			return nil
		},
	}
}

func (a *app) scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario NAME",
		Short: "Replace the ledger with a named scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scenario.NewLoader(a.now).Load(cmd.Context(), a.st, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(fmt.Sprintf("Loaded scenario %q into %s", args[0], a.scope)))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "list",
		Short:       "List available scenarios",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"noscope": "true"},
		Run: func(*cobra.Command, []string) {
			for _, name := range scenario.Names() {
				fmt.Fprintln(a.out, name)
			}
		},
	})
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset %s without --yes", a.scope)
			}
			if err := a.st.ResetScope(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess("Ledger "+a.scope+" emptied"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole ledger as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.st.Ledger()
			if err != nil {
				return err
			}
			if l.Transactions, err = a.st.ListTransactions(); err != nil {
				return err
			}

			if output == "" || output == "-" {
				return writeJSON(a.out, l)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := writeJSON(f, l); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(fmt.Sprintf("Exported %d transactions, %d assets, %d liabilities to %s",
				len(l.Transactions), len(l.Assets), len(l.Liabilities), output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write; standard output when empty")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
