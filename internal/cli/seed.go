package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/entrypoint"
	"github.com/mrlokans/librarydesk/internal/services"
)

// SeedFile is the YAML layout accepted by the seed command:
//
//	books:
//	  - title: Dune
//	    author: Frank Herbert
//	    isbn: "9780441013593"
//	    category: Fiction
//	    quantity: 3
//	members:
//	  - name: Alice
//	    email: alice@example.com
//	    phone: 555-0100
type SeedFile struct {
	Books   []services.BookInput   `yaml:"books"`
	Members []services.MemberInput `yaml:"members"`
}

// MemberCreator is the part of the member directory the seeder writes through.
type MemberCreator interface {
	CreateMember(ctx context.Context, in services.MemberInput) (*entities.Member, error)
}

// SeedResult counts what a seed run created. Records that already exist
// are skipped so a seed file can be applied repeatedly.
type SeedResult struct {
	Books   int
	Members int
	Skipped int
}

func newSeedCommand() *cobra.Command {
	var file, dbPath string
	cmd := &cobra.Command{
		Use:   "seed --file fixtures.yaml",
		Short: "Load books and members from a YAML fixture file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			seed, err := ParseSeedFile(data)
			if err != nil {
				return err
			}

			cfg := loadConfig(dbPath)
			db, err := entrypoint.OpenDatabase(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			svc := entrypoint.NewServices(db, cfg)
			defer svc.Audit.Wait()

			result, err := Seed(cmd.Context(), svc.Catalog, svc.Members, seed, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books and %d members (%d already present)\n",
				result.Books, result.Members, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the YAML fixture file (required)")
	dbFlag(cmd, &dbPath)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func ParseSeedFile(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i := range seed.Books {
		if seed.Books[i].Quantity == 0 {
			seed.Books[i].Quantity = services.DefaultQuantity
		}
	}
	return &seed, nil
}

// Seed creates the fixture records. A duplicate ISBN or email is skipped;
// any other failure stops the run.
func Seed(ctx context.Context, books BookCreator, members MemberCreator, seed *SeedFile, out io.Writer) (SeedResult, error) {
	var result SeedResult

	for _, in := range seed.Books {
		if _, err := books.CreateBook(ctx, in); err != nil {
			if services.IsValidation(err) && in.Validate() == nil {
				fmt.Fprintf(out, "  [SKIP] book %q: %v\n", in.Title, err)
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("book %q: %w", in.Title, err)
		}
		result.Books++
	}

	for _, in := range seed.Members {
		if _, err := members.CreateMember(ctx, in); err != nil {
			if services.IsValidation(err) && in.Validate() == nil {
				fmt.Fprintf(out, "  [SKIP] member %q: %v\n", in.Name, err)
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("member %q: %w", in.Name, err)
		}
		result.Members++
	}

	return result, nil
}
