// Package export renders expenses as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"gharkharcha/internal/models"
	"gharkharcha/internal/report"
	"gharkharcha/internal/services"
	"gharkharcha/internal/store"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

// Row is one CSV line.
type Row struct {
	Date        string `csv:"date"`
	Category    string `csv:"category"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Member      string `csv:"member"`
	Planned     bool   `csv:"planned"`
	Recurring   bool   `csv:"recurring"`
	Frequency   string `csv:"frequency"`
	Tags        string `csv:"tags"`
}

// Rows maps expenses onto CSV rows, resolving member ids to names. Ids of
// deleted members resolve to report.UnknownMember.
func Rows(expenses []models.Expense, members []models.FamilyMember) []Row {
	rows := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, Row{
			Date:        e.Date.Format(dateLayout),
			Category:    string(e.Category),
			Description: e.Description,
			Amount:      e.Amount.String(),
			Member:      report.MemberName(members, e.FamilyMemberID),
			Planned:     e.IsPlanned,
			Recurring:   e.IsRecurring,
			Frequency:   string(e.RecurringFrequency),
			Tags:        strings.Join(e.Tags, ";"),
		})
	}
	return rows
}

// Write renders expenses as CSV with a header line.
func Write(w io.Writer, expenses []models.Expense, members []models.FamilyMember) error {
	rows := Rows(expenses, members)
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// Load fetches uid's expenses in [start, end] and family members from st
// concurrently.
func Load(ctx context.Context, st store.RecordStore, uid string, start, end time.Time, log *zap.SugaredLogger) ([]models.Expense, []models.FamilyMember, error) {
	var (
		expenses []models.Expense
		members  []models.FamilyMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = services.QueryExpenses(gctx, st, uid, start, end, log)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = services.QueryFamilyMembers(gctx, st, uid, log)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return expenses, members, nil
}

// FromStore loads and writes uid's expenses in [start, end].
func FromStore(ctx context.Context, w io.Writer, st store.RecordStore, uid string, start, end time.Time, log *zap.SugaredLogger) (int, error) {
	expenses, members, err := Load(ctx, st, uid, start, end, log)
	if err != nil {
		return 0, err
	}
	return len(expenses), Write(w, expenses, members)
}
