package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/edupay/internal/cli"
	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/config"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/ofx"
	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a transaction view",
		Long: `Export every row of a filtered and sorted transaction view, not just
one page. The query flags are the same as 'transactions list'.`,
	}

	cmd.AddCommand(exportSheetsCmd())
	cmd.AddCommand(exportOFXCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the view to a Google spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return common.NewUserError("Google Sheets is not configured. Set sheets.* in the config file or GOOGLE_SHEETS_* variables.", err)
			}
			if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
				sheetsCfg.SpreadsheetID = id
			}

			bar := cli.NewProgressBar(os.Stderr, 2, "Exporting")

			state, rows, err := exportRows(ctx, cmd)
			if err != nil {
				return err
			}
			cli.Step(bar)

			writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
			if err != nil {
				return err
			}

			title, _ := cmd.Flags().GetString("title")
			report := sheets.NewReport(title, state.Encode(), rows, time.Now())
			spreadsheetID, err := writer.Write(ctx, report)
			if err != nil {
				return common.NewUserError("Export to Google Sheets failed", err)
			}
			cli.Step(bar)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d transactions", len(rows))))
			fmt.Fprintf(out, "https://docs.google.com/spreadsheets/d/%s\n", spreadsheetID)
			return nil
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().String("spreadsheet-id", "", "write into an existing spreadsheet")
	cmd.Flags().String("title", "School Fee Transactions", "report title")
	return cmd
}

func exportOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ofx",
		Short: "Write the view as an OFX bank statement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			_, rows, err := exportRows(ctx, cmd)
			if err != nil {
				return err
			}

			account, _ := cmd.Flags().GetString("account")
			writer := ofx.NewWriter(ofx.Options{AccountID: account}, slog.Default())

			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return writer.Write(cmd.OutOrStdout(), rows)
			}

			if err := writeFile(output, func(w io.Writer) error { return writer.Write(w, rows) }); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Wrote %d transactions to %s", len(rows), output)))
			return nil
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("account", model.DefaultSchoolID, "statement account id")
	return cmd
}

// exportRows resolves the query flags into every matching row, in view
// order. Rows beyond transactions.fetch_cap are not visible.
func exportRows(ctx context.Context, cmd *cobra.Command) (query.State, []model.Transaction, error) {
	a, err := openApp(ctx)
	if err != nil {
		return query.State{}, nil, err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return query.State{}, nil, err
	}

	state, err := queryStateFromFlags(cmd, a.cfg.DefaultLimit)
	if err != nil {
		return query.State{}, nil, err
	}

	view, err := a.controller().Resolve(ctx, state.WithLimit(a.cfg.FetchCap))
	if err != nil {
		return query.State{}, nil, common.NewUserError("Failed to load transactions", err)
	}
	slog.Debug("Export rows resolved", "rows", len(view.Items), "query", state.Encode())
	return state, view.Items, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	path = config.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize third-party services",
	}
	cmd.AddCommand(authSheetsCmd())
	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets export",
		Long: `Run the OAuth2 consent flow for Google Sheets and store the token.
A browser window is opened; the redirect is received on a local listener.

Copy the printed refresh token into sheets.refresh_token to use it for
'edupay export sheets'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			oauthCfg := sheets.OAuth2Config{
				ClientID:     v.GetString("sheets.client_id"),
				ClientSecret: v.GetString("sheets.client_secret"),
			}
			if oauthCfg.ClientID == "" {
				oauthCfg.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
			}
			if oauthCfg.ClientSecret == "" {
				oauthCfg.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
			}
			if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
				return common.NewUserError("sheets.client_id and sheets.client_secret are required", common.ErrMissingConfig)
			}

			dir, err := config.DefaultConfigDir()
			if err != nil {
				return err
			}
			oauthCfg.TokenFile = filepath.Join(dir, "sheets-token.json")
			oauthCfg.RedirectAddr, _ = cmd.Flags().GetString("listen")

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Authorization canceled", "")
			token, err := sheets.GetOrCreateToken(handler.HandleInterrupts(cmd.Context()), oauthCfg)
			if err != nil {
				return common.NewUserError("Google authorization failed", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Google Sheets authorized"))
			if token.RefreshToken != "" {
				fmt.Fprintf(out, "Refresh token: %s\n", token.RefreshToken)
			}
			fmt.Fprintf(out, "Token file:    %s\n", oauthCfg.TokenFile)
			return nil
		},
	}
	cmd.Flags().String("listen", sheets.DefaultRedirectAddr, "address for the OAuth redirect")
	return cmd
}
