// Command seedpo loads purchase orders from an Excel workbook into the
// database. The workbook needs a PurchaseOrders sheet (PO Number, Vendor,
// Issue Date, Total, Status) and may carry a LineItems sheet (PO Number,
// Item, Quantity, Unit Price).
// Usage: go run ./cmd/seedpo <file.xlsx>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"porecon/internal/config"
	"porecon/internal/domain"
	"porecon/internal/repository/postgres"
	"porecon/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seedpo <file.xlsx>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	poSvc := service.NewPurchaseOrderService(postgres.NewPurchaseOrderRepo(db))

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	lineItems, err := parseLineItems(f)
	if err != nil {
		return err
	}

	rows, err := f.GetRows("PurchaseOrders")
	if err != nil {
		return fmt.Errorf("read PurchaseOrders sheet: %w", err)
	}

	var created, failed int
	ctx := context.Background()
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue // header or short row
		}
		poNumber := strings.TrimSpace(row[0])
		if poNumber == "" {
			continue
		}

		issueDate, err := time.Parse("2006-01-02", strings.TrimSpace(row[2]))
		if err != nil {
			log.Printf("row %d: bad issue date %q, skipping", i+1, row[2])
			failed++
			continue
		}
		total, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			log.Printf("row %d: bad total %q, skipping", i+1, row[3])
			failed++
			continue
		}
		status := domain.POStatusApproved
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			status = domain.POStatus(strings.TrimSpace(row[4]))
		}

		_, err = poSvc.Create(ctx, &service.CreatePurchaseOrderInput{
			PONumber:    poNumber,
			VendorName:  strings.TrimSpace(row[1]),
			IssueDate:   issueDate,
			TotalAmount: total,
			LineItems:   lineItems[poNumber],
			Status:      status,
		})
		if err != nil {
			log.Printf("row %d: %s: %v", i+1, poNumber, err)
			failed++
			continue
		}
		created++
	}

	log.Printf("seedpo: %d purchase orders created, %d skipped", created, failed)
	return nil
}

// parseLineItems reads the optional LineItems sheet keyed by PO number.
func parseLineItems(f *excelize.File) (map[string][]domain.LineItem, error) {
	out := make(map[string][]domain.LineItem)

	idx, _ := f.GetSheetIndex("LineItems")
	if idx == -1 {
		return out, nil
	}
	rows, err := f.GetRows("LineItems")
	if err != nil {
		return nil, fmt.Errorf("read LineItems sheet: %w", err)
	}

	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		poNumber := strings.TrimSpace(row[0])
		qty, qerr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		price, perr := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if poNumber == "" || qerr != nil || perr != nil {
			log.Printf("LineItems row %d: malformed, skipping", i+1)
			continue
		}
		out[poNumber] = append(out[poNumber], domain.LineItem{
			ItemName:  strings.TrimSpace(row[1]),
			Quantity:  qty,
			UnitPrice: price,
		})
	}
	return out, nil
}
