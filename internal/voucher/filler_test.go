package voucher

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/domain/entity"
)

func TestFillerRender(t *testing.T) {
	filler := NewFiller("Greenfield Institute", zap.NewNop())

	doc := &entity.ReimbursementDocument{
		DocumentID: "REIMB-0007",
		StudentID:  "STU-42",
		Event: entity.EventDetails{
			EventName:   "Annual Tech Fest",
			EventDate:   time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
			CouncilName: "Technical Council",
		},
		Items: []entity.BillLineItem{
			{BillID: "BILL-a", Position: 0, Bill: entity.Bill{
				Description: "Banner printing",
				Date:        time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
				AmountPaise: 10010,
				FileURL:     "https://files.example.com/banner.pdf",
			}},
			{BillID: "BILL-b", Position: 1, Bill: entity.Bill{
				Description: "Refreshments",
				Date:        time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC),
				AmountPaise: 5040,
				FileURL:     "https://files.example.com/food.pdf",
			}},
		},
		TotalPaise: 15050,
		Bank: entity.BankDetails{
			AccountHolderName: "Asha Verma",
			AccountNumber:     "123456789012",
			IFSCCode:          "HDFC0001234",
			BankName:          "HDFC Bank",
		},
		StaffStatus: entity.StatusApproved,
	}

	wb, err := filler.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer wb.Close()

	checks := map[string]string{
		"A1":  "Greenfield Institute",
		"B4":  "REIMB-0007",
		"B5":  "STU-42",
		"B6":  "Technical Council",
		"B11": "Banner printing",
		"D11": "100.10",
		"B12": "Refreshments",
		"D12": "50.40",
		"D14": "150.50",
		"B17": "123456789012",
	}
	for cell, want := range checks {
		got, err := wb.GetCellValue("Payment Voucher", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}

	sheets := wb.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Payment Voucher" {
		t.Errorf("sheets = %v, want only Payment Voucher", sheets)
	}
}
