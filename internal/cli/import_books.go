package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/entrypoint"
	"github.com/mrlokans/librarydesk/internal/services"
)

// BookCreator is the part of the catalogue the importers write through.
type BookCreator interface {
	CreateBook(ctx context.Context, in services.BookInput) (*entities.Book, error)
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int
	Failed   int
	Errors   []string
}

type importBooksOptions struct {
	File    string
	DB      string
	DryRun  bool
	Verbose bool
}

func newImportBooksCommand() *cobra.Command {
	opts := &importBooksOptions{}
	cmd := &cobra.Command{
		Use:   "import-books --file books.csv",
		Short: "Import books from a CSV file",
		Long: `Import books from a CSV file with a header row.

Recognised columns: title, author, isbn, category, quantity, description.
Column order does not matter; unknown columns are ignored. Rows that fail
validation or reuse an existing ISBN are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.File, "file", "", "Path to the CSV file (required)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse and validate without saving")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Print every row")
	dbFlag(cmd, &opts.DB)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (o *importBooksOptions) run(ctx context.Context, out io.Writer) error {
	file, err := os.Open(o.File)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := ReadBooksCSV(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d books in %s\n", len(rows), o.File)

	if o.DryRun {
		invalid := 0
		for i, row := range rows {
			if err := row.Validate(); err != nil {
				invalid++
				fmt.Fprintf(out, "  [ERROR] row %d: %v\n", i+2, err)
			}
		}
		fmt.Fprintf(out, "\nDry run complete: %d valid, %d invalid. Use without --dry-run to import.\n", len(rows)-invalid, invalid)
		return nil
	}

	cfg := loadConfig(o.DB)
	db, err := entrypoint.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	svc := entrypoint.NewServices(db, cfg)
	defer svc.Audit.Wait()

	var progress io.Writer
	if o.Verbose {
		progress = out
	}
	result := ImportBooks(ctx, svc.Catalog, rows, progress)

	var importErr error
	if result.Failed > 0 {
		importErr = errors.New(strings.Join(result.Errors, "; "))
	}
	svc.Audit.LogImport("csv", fmt.Sprintf("Imported books from %s", o.File), result.Imported, result.Failed, importErr)

	printImportSummary(out, result, len(rows))
	return nil
}

// ReadBooksCSV parses a header-led CSV file into book inputs. Quantity
// defaults to one copy when the column is missing or blank.
func ReadBooksCSV(r io.Reader) ([]services.BookInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"title", "author", "isbn", "category"} {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("CSV header is missing the %q column", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []services.BookInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		quantity, err := services.ParseInt("quantity", field(record, "quantity"), services.DefaultQuantity)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, services.BookInput{
			Title:       field(record, "title"),
			Author:      field(record, "author"),
			ISBN:        field(record, "isbn"),
			Category:    field(record, "category"),
			Quantity:    quantity,
			Description: field(record, "description"),
		})
	}
	return rows, nil
}

// ImportBooks creates every row, collecting failures instead of stopping.
// progress may be nil.
func ImportBooks(ctx context.Context, catalog BookCreator, rows []services.BookInput, progress io.Writer) ImportResult {
	var result ImportResult
	for _, row := range rows {
		book, err := catalog.CreateBook(ctx, row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%q: %v", row.Title, err))
			if progress != nil {
				fmt.Fprintf(progress, "  [ERROR] %q: %v\n", row.Title, err)
			}
			continue
		}
		result.Imported++
		if progress != nil {
			fmt.Fprintf(progress, "  [OK] %q (ID: %d, %d copies)\n", book.Title, book.ID, book.Quantity)
		}
	}
	return result
}

func printImportSummary(out io.Writer, result ImportResult, total int) {
	fmt.Fprintln(out, "\n=== Import Summary ===")
	fmt.Fprintf(out, "Books saved: %d/%d\n", result.Imported, total)
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\n%d errors occurred:\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Fprintf(out, "  [ERROR] %s\n", msg)
		}
	}
}
