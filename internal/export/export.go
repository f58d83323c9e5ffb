// Package export writes inventory reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/auditmagic/internal/model"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	InventorySheet    = "Inventory"
	TransactionsSheet = "Transactions"
)

const dateFormat = "2006-01-02 15:04:05"

var inventoryHeader = []any{"Type", "Sub-type", "Serial number", "Quantity", "Location", "Condition", "Details"}

var transactionHeader = []any{"Date", "Type", "Sub-type", "Action", "Change", "Before", "After", "Serial number", "Notes"}

// WriteReport writes a workbook with an inventory sheet and a transactions
// sheet to w.
func WriteReport(w io.Writer, items []model.InventoryItem, txs []model.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	// The default sheet becomes the inventory sheet.
	if err := f.SetSheetName("Sheet1", InventorySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	inventoryRows := make([][]any, 0, len(items))
	for _, it := range items {
		inventoryRows = append(inventoryRows, []any{
			it.TypeName, it.SubType, it.Serial(), it.Quantity, it.Location, it.Condition, it.Details,
		})
	}
	if err := writeSheet(f, InventorySheet, bold, inventoryHeader, inventoryRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	txRows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		serial := ""
		if tx.SerialNumber != nil {
			serial = *tx.SerialNumber
		}
		txRows = append(txRows, []any{
			tx.CreatedAt.UTC().Format(dateFormat), tx.TypeName, tx.SubType, tx.Type,
			tx.QuantityChange, tx.QuantityBefore, tx.QuantityAfter, serial, tx.Notes,
		})
	}
	if err := writeSheet(f, TransactionsSheet, bold, transactionHeader, txRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return nil
}
