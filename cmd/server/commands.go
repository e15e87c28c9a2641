package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/leave-calendar/api"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/transfer"
)

func init() {
	rootCmd.AddCommand(userCmd, ledgerCmd, exportCmd, importCmd, claimCmd)
	userCmd.AddCommand(userAddCmd)

	for _, c := range []*cobra.Command{ledgerCmd, exportCmd, importCmd, claimCmd} {
		c.Flags().Int64("user", 0, "User id")
		_ = c.MarkFlagRequired("user")
	}
	exportCmd.Flags().String("out", "", "Output file (default stdout)")
	importCmd.Flags().String("in", "", "Backup document to load")
	_ = importCmd.MarkFlagRequired("in")
}

// =============================================================================
// USER
// =============================================================================

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add EMAIL NAME",
	Short: "Register a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer.Close()

		u, err := svc.Register(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s <%s>\n", u.ID, u.Name, u.Email)
		return nil
	},
}

// =============================================================================
// LEDGER
// =============================================================================

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print a user's derived ledger as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer.Close()

		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		v, err := svc.Ledger(cmd.Context(), user)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(api.ToLedgerDTO(v))
	},
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's backup document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer.Close()

		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		doc, err := svc.Export(cmd.Context(), user)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return transfer.Encode(cmd.OutOrStdout(), doc)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := transfer.Encode(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.WithField("user_id", user).WithField("file", out).Info("backup written")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace a user's log and balance from a backup document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer.Close()

		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		in, _ := cmd.Flags().GetString("in")
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("open %s: %w", in, err)
		}
		defer f.Close()

		doc, err := transfer.Decode(f)
		if err != nil {
			return err
		}
		n, err := svc.Import(cmd.Context(), user, doc)
		if err != nil {
			return err
		}

		ws, err := svc.Warnings(cmd.Context(), user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d events\n", n)
		for _, w := range ws {
			fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w.Error())
		}
		return nil
	},
}

// =============================================================================
// CLAIM
// =============================================================================

var claimCmd = &cobra.Command{
	Use:   "claim EVENT_ID...",
	Short: "Claim extra days instead of taking them off",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer.Close()

		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		ids := make([]ledger.EventID, 0, len(args))
		for _, a := range args {
			ids = append(ids, ledger.EventID(a))
		}

		n, err := svc.Claim(cmd.Context(), user, ids)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "claimed %d of %d\n", n, len(ids))
		return nil
	},
}

// =============================================================================
// HELPERS
// =============================================================================

func userFlag(cmd *cobra.Command) (ledger.UserID, error) {
	id, _ := cmd.Flags().GetInt64("user")
	if id <= 0 {
		return 0, fmt.Errorf("--user must be a positive id")
	}
	return ledger.UserID(id), nil
}
