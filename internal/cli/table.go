package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/edupay/internal/dashboard"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/txview"
)

// TimeLayout is how payment times are shown in tables.
const TimeLayout = "02 Jan 2006 15:04"

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// FormatTime renders t, or N/A for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return model.NotAvailable
	}
	return t.Local().Format(TimeLayout)
}

// WriteTransactions renders rows as an aligned table.
func WriteTransactions(w io.Writer, rows []model.Transaction) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLLECT ID\tSCHOOL\tGATEWAY\tORDER AMT\tTXN AMT\tSTATUS\tCUSTOM ORDER ID\tPAYMENT TIME")
	for _, txn := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.CollectID,
			txn.SchoolName(),
			txn.Gateway,
			FormatAmount(txn.OrderAmount),
			FormatAmount(txn.TransactionAmount),
			txn.Status.Label(),
			txn.CustomOrderID,
			FormatTime(txn.PaymentTime),
		)
	}
	return tw.Flush()
}

// WriteView renders one page of the transaction list with its footer.
func WriteView(w io.Writer, view txview.View) error {
	if len(view.Items) == 0 {
		if _, err := fmt.Fprintln(w, SubtleStyle.Render("No transactions found")); err != nil {
			return err
		}
	} else if err := WriteTransactions(w, view.Items); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, SubtleStyle.Render(PageFooter(view)))
	return err
}

// PageFooter is the "Page x of y" line under a table.
func PageFooter(view txview.View) string {
	noun := "transactions"
	if view.TotalCount == 1 {
		noun = "transaction"
	}
	return fmt.Sprintf("Page %d of %d · %d %s", view.CurrentPage, view.TotalPages, view.TotalCount, noun)
}

// WriteTransactionDetail renders every field of one transaction.
func WriteTransactionDetail(w io.Writer, txn model.Transaction) error {
	errMsg := model.NotAvailable
	if txn.HasError() {
		errMsg = txn.ErrorMessage
	}

	tw := newTabWriter(w)
	fields := [][2]string{
		{"Collect ID", txn.CollectID},
		{"Custom Order ID", txn.CustomOrderID},
		{"School", txn.SchoolName()},
		{"Gateway", txn.Gateway},
		{"Status", txn.Status.Label()},
		{"Order Amount", FormatAmount(txn.OrderAmount)},
		{"Transaction Amount", FormatAmount(txn.TransactionAmount)},
		{"Payment Mode", txn.PaymentMode},
		{"Bank Reference", txn.BankReference},
		{"Payment Time", FormatTime(txn.PaymentTime)},
		{"Error", errMsg},
	}
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f[0], f[1])
	}
	return tw.Flush()
}

// WriteSchoolStats renders the per-school report.
func WriteSchoolStats(w io.Writer, stats []dashboard.SchoolStat) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "SCHOOL\tTRANSACTIONS\tSAMPLED AMOUNT\tSUCCESS RATE\tID")
	for _, s := range stats {
		if s.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", s.School.Name, s.School.ID)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s%%\t%s\n",
			s.School.Name,
			s.TotalTransactions,
			FormatDecimal(s.TotalAmount),
			s.SuccessRate.StringFixed(0),
			s.School.ID,
		)
	}
	return tw.Flush()
}

// WriteSummary renders the dashboard overview.
func WriteSummary(w io.Writer, summary dashboard.Summary) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Total Transactions:\t%d\n", summary.Total)
	fmt.Fprintf(tw, "Total Amount:\t%s\n", FormatDecimal(summary.TotalAmount))
	fmt.Fprintf(tw, "Success Rate:\t%d%%\n", summary.SuccessRate())
	fmt.Fprintf(tw, "Schools:\t%d\n", summary.Schools)
	for _, d := range summary.Distribution {
		fmt.Fprintf(tw, "%s:\t%d\n", d.Status.Label(), d.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\n"+BoldStyle.Render("Last 7 days")); err != nil {
		return err
	}
	tw = newTabWriter(w)
	peak := 0
	for _, d := range summary.LastDays {
		peak = max(peak, d.Count)
	}
	for _, d := range summary.LastDays {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", d.Count*20/peak)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", d.Date.Format("Mon 02 Jan"), d.Count, FormatDecimal(d.Amount), InfoStyle.Render(bar))
	}
	return tw.Flush()
}

// WritePayments renders locally recorded payment requests.
func WritePayments(w io.Writer, records []model.PaymentRecord) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLLECT REQUEST ID\tSTUDENT\tSCHOOL\tAMOUNT\tOUTCOME\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CollectRequestID,
			r.StudentInfo.Name,
			model.SchoolName(r.SchoolID),
			FormatAmount(r.Amount),
			r.Outcome,
			FormatTime(r.Timestamp),
		)
	}
	return tw.Flush()
}
