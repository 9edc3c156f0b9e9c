// Package voucher renders approved reimbursement documents as Excel
// payment vouchers for the accounts office.
package voucher

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/domain/entity"
)

const sheetName = "Payment Voucher"

// Filler builds payment-voucher workbooks.
type Filler struct {
	instituteName string
	logger        *zap.Logger
}

// NewFiller creates a new Filler.
func NewFiller(instituteName string, logger *zap.Logger) *Filler {
	return &Filler{
		instituteName: instituteName,
		logger:        logger,
	}
}

// Render builds a voucher workbook for the document. The caller owns
// the returned file and must close it.
func (f *Filler) Render(doc *entity.ReimbursementDocument) (*excelize.File, error) {
	wb := excelize.NewFile()
	idx, err := wb.NewSheet(sheetName)
	if err != nil {
		wb.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	wb.SetActiveSheet(idx)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		wb.Close()
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}

	f.setCell(wb, "A1", f.instituteName)
	f.setCell(wb, "A2", "Student Council Reimbursement Voucher")

	f.setCell(wb, "A4", "Voucher No.")
	f.setCell(wb, "B4", doc.DocumentID)
	f.setCell(wb, "A5", "Student")
	f.setCell(wb, "B5", doc.StudentID)
	f.setCell(wb, "A6", "Council")
	f.setCell(wb, "B6", doc.Event.CouncilName)
	f.setCell(wb, "A7", "Event")
	f.setCell(wb, "B7", doc.Event.EventName)
	f.setCell(wb, "A8", "Event Date")
	f.setCell(wb, "B8", doc.Event.EventDate.Format("2006-01-02"))

	f.setCell(wb, "A10", "No.")
	f.setCell(wb, "B10", "Description")
	f.setCell(wb, "C10", "Bill Date")
	f.setCell(wb, "D10", "Amount")
	f.setCell(wb, "E10", "Receipt")

	row := 11
	for i, it := range doc.Items {
		f.setCell(wb, fmt.Sprintf("A%d", row), fmt.Sprintf("%d", i+1))
		f.setCell(wb, fmt.Sprintf("B%d", row), it.Bill.Description)
		f.setCell(wb, fmt.Sprintf("C%d", row), it.Bill.Date.Format("2006-01-02"))
		f.setCell(wb, fmt.Sprintf("D%d", row), entity.FormatPaise(it.Bill.AmountPaise))
		f.setCell(wb, fmt.Sprintf("E%d", row), it.Bill.FileURL)
		row++
	}

	row++
	f.setCell(wb, fmt.Sprintf("C%d", row), "Total")
	f.setCell(wb, fmt.Sprintf("D%d", row), doc.TotalAmount())

	row += 2
	f.setCell(wb, fmt.Sprintf("A%d", row), "Payee")
	f.setCell(wb, fmt.Sprintf("B%d", row), doc.Bank.AccountHolderName)
	row++
	f.setCell(wb, fmt.Sprintf("A%d", row), "Account No.")
	f.setCell(wb, fmt.Sprintf("B%d", row), doc.Bank.AccountNumber)
	row++
	f.setCell(wb, fmt.Sprintf("A%d", row), "IFSC")
	f.setCell(wb, fmt.Sprintf("B%d", row), doc.Bank.IFSCCode)
	row++
	f.setCell(wb, fmt.Sprintf("A%d", row), "Bank")
	f.setCell(wb, fmt.Sprintf("B%d", row), doc.Bank.BankName)

	f.logger.Debug("Voucher rendered",
		zap.String("document_id", doc.DocumentID),
		zap.Int("items", len(doc.Items)))
	return wb, nil
}

func (f *Filler) setCell(wb *excelize.File, cell string, value interface{}) {
	if err := wb.SetCellValue(sheetName, cell, value); err != nil {
		f.logger.Warn("Failed to set voucher cell",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
