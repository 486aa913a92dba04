package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/librarydesk/internal/entrypoint"
	"github.com/mrlokans/librarydesk/internal/services"
)

const (
	defaultReportWidth = 100
	minTitleWidth      = 12
)

func newOverdueCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Print the loans that are past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(dbPath)
			db, err := entrypoint.OpenDatabase(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			svc := entrypoint.NewServices(db, cfg)
			loans, err := svc.Circulation.Overdue(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list overdue loans: %w", err)
			}

			WriteOverdueReport(cmd.OutOrStdout(), loans, terminalWidth())
			return nil
		},
	}
	dbFlag(cmd, &dbPath)
	return cmd
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultReportWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultReportWidth
	}
	return width
}

// WriteOverdueReport prints one row per loan, giving the title column
// whatever width remains after the fixed columns.
func WriteOverdueReport(w io.Writer, loans []services.Loan, width int) {
	if len(loans) == 0 {
		fmt.Fprintln(w, "No overdue loans.")
		return
	}

	// reference(26) + member(20) + due(10) + days(5) + separators
	const fixed = 26 + 20 + 10 + 5 + 8
	titleWidth := width - fixed
	if titleWidth < minTitleWidth {
		titleWidth = minTitleWidth
	}

	rowFormat := fmt.Sprintf("%%-26s  %%-%ds  %%-20s  %%-10s  %%5s\n", titleWidth)
	fmt.Fprintf(w, rowFormat, "Reference", "Title", "Member", "Due", "Days")
	fmt.Fprintln(w, strings.Repeat("-", fixed+titleWidth))
	for _, loan := range loans {
		fmt.Fprintf(w, rowFormat,
			loan.Reference,
			truncateString(loan.BookTitle, titleWidth),
			truncateString(loan.MemberName, 20),
			loan.DueDate.Format("2006-01-02"),
			fmt.Sprint(loan.DaysOverdue),
		)
	}
	fmt.Fprintf(w, "\n%d overdue loans\n", len(loans))
}

func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
