package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/edupay/internal/cli"
	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/txview"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "List transactions",
	}

	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(transactionsSchoolCmd())

	return cmd
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions across all schools",
		Long: `List one page of transactions across all schools.

Up to transactions.fetch_cap rows are fetched for the search text and then
filtered, sorted and paginated locally.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			state, err := queryStateFromFlags(cmd, a.cfg.DefaultLimit)
			if err != nil {
				return err
			}

			view, err := a.controller().Resolve(ctx, state)
			if err != nil {
				return common.NewUserError("Failed to load transactions", err)
			}
			return cli.WriteView(cmd.OutOrStdout(), view)
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func transactionsSchoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "school <school-id>",
		Short: "List one school's transactions",
		Long: `List one page of a school's transactions. Paging, sorting and the
status filter are applied by the backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			state, err := queryStateFromFlags(cmd, a.cfg.DefaultLimit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			schoolID := args[0]
			if !model.IsKnownSchool(schoolID) {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Unknown school id "+schoolID))
			} else {
				fmt.Fprintln(out, cli.FormatTitle(model.SchoolName(schoolID)))
			}

			ctrl := txview.NewSchoolController(a.client, nil)
			view, err := ctrl.Resolve(ctx, schoolID, state)
			if err != nil {
				return common.NewUserError("Failed to load school transactions", err)
			}
			return cli.WriteView(out, view)
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <custom-order-id>",
		Short: "Look up a transaction by custom order id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			txn, err := a.client.TransactionStatus(ctx, args[0])
			if err != nil {
				return common.NewUserError("Transaction not found or error occurred", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Transaction "+txn.CustomOrderID)+"  "+cli.StatusBadge(txn.Status))
			return cli.WriteTransactionDetail(out, *txn)
		},
	}
}
