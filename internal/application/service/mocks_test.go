package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// Mock repositories

type mockDocumentRepo struct {
	createFunc        func(ctx context.Context, doc *entity.ReimbursementDocument) error
	getFunc           func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error)
	listFunc          func(ctx context.Context, studentID string) ([]*entity.ReimbursementDocument, error)
	updateFunc        func(ctx context.Context, doc *entity.ReimbursementDocument, expectedVersion int64) error
	applyDecisionFunc func(ctx context.Context, documentID string, expect port.DecisionFilter, set port.DecisionUpdate) (bool, error)
	deleteFunc        func(ctx context.Context, documentID string) error

	createCalls int
	updateCalls int
	deleteCalls int
	applyCalls  int
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *entity.ReimbursementDocument) error {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	doc.ID = 1
	return nil
}

func (m *mockDocumentRepo) GetByDocumentID(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, documentID)
	}
	return nil, apperr.Newf(apperr.KindNotFound, "document %s not found", documentID)
}

func (m *mockDocumentRepo) ListByStudentID(ctx context.Context, studentID string) ([]*entity.ReimbursementDocument, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, studentID)
	}
	return nil, nil
}

func (m *mockDocumentRepo) Update(ctx context.Context, doc *entity.ReimbursementDocument, expectedVersion int64) error {
	m.updateCalls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, doc, expectedVersion)
	}
	return nil
}

func (m *mockDocumentRepo) ApplyDecision(ctx context.Context, documentID string, expect port.DecisionFilter, set port.DecisionUpdate) (bool, error) {
	m.applyCalls++
	if m.applyDecisionFunc != nil {
		return m.applyDecisionFunc(ctx, documentID, expect, set)
	}
	return true, nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, documentID string) error {
	m.deleteCalls++
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, documentID)
	}
	return nil
}

type mockBillItemRepo struct {
	replaceFunc func(ctx context.Context, documentID string, items []entity.BillLineItem) error
	getFunc     func(ctx context.Context, documentID string) ([]entity.BillLineItem, error)
	removeFunc  func(ctx context.Context, documentID, billID string) error

	replaceCalls int
}

func (m *mockBillItemRepo) ReplaceForDocument(ctx context.Context, documentID string, items []entity.BillLineItem) error {
	m.replaceCalls++
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, documentID, items)
	}
	return nil
}

func (m *mockBillItemRepo) GetByDocumentID(ctx context.Context, documentID string) ([]entity.BillLineItem, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, documentID)
	}
	return nil, nil
}

func (m *mockBillItemRepo) Remove(ctx context.Context, documentID, billID string) error {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, documentID, billID)
	}
	return nil
}

type mockSequenceRepo struct {
	next int64
}

func (m *mockSequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	m.next++
	return m.next, nil
}

type mockHistoryRepo struct {
	appendFunc func(ctx context.Context, e *entity.ApprovalHistoryEntry) error
	entries    []*entity.ApprovalHistoryEntry
}

func (m *mockHistoryRepo) Append(ctx context.Context, e *entity.ApprovalHistoryEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, e)
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockHistoryRepo) ListByDocumentID(ctx context.Context, documentID string) ([]*entity.ApprovalHistoryEntry, error) {
	return m.entries, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Mock infrastructure

type mockFileStore struct {
	uploadFunc func(ctx context.Context, filename string, content []byte, mimeType string) (string, error)

	mu          sync.Mutex
	uploadCalls int
}

func (m *mockFileStore) Upload(ctx context.Context, filename string, content []byte, mimeType string) (string, error) {
	m.mu.Lock()
	m.uploadCalls++
	m.mu.Unlock()
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, filename, content, mimeType)
	}
	return "https://files.example.com/" + filename, nil
}

func (m *mockFileStore) Delete(ctx context.Context, publicURL string) error {
	return nil
}

func (m *mockFileStore) uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadCalls
}

type mockInspector struct {
	inspectFunc func(filename string, content []byte) (string, error)
}

func (m *mockInspector) Inspect(filename string, content []byte) (string, error) {
	if m.inspectFunc != nil {
		return m.inspectFunc(filename, content)
	}
	return entity.MimePDF, nil
}

type mockRenderer struct {
	renderFunc  func(doc *entity.ReimbursementDocument) (*excelize.File, error)
	renderCalls int
	rendered    *entity.ReimbursementDocument
}

func (m *mockRenderer) Render(doc *entity.ReimbursementDocument) (*excelize.File, error) {
	m.renderCalls++
	m.rendered = doc
	if m.renderFunc != nil {
		return m.renderFunc(doc)
	}
	return excelize.NewFile(), nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// Fixture helpers

func validCreateInput(n int) (CreateInput, []FileInput) {
	in := CreateInput{
		Event: EventInput{
			EventName:        "Annual Tech Fest",
			EventDate:        "2026-02-14",
			EventDescription: "Inter-college technical festival",
			CouncilName:      "Technical Council",
		},
		Bank: BankInput{
			AccountHolderName: "Asha Verma",
			AccountNumber:     "123456789012",
			IFSCCode:          "HDFC0001234",
			BankName:          "HDFC Bank",
		},
	}

	var files []FileInput
	for i := 0; i < n; i++ {
		in.Items = append(in.Items, ItemInput{
			Description: fmt.Sprintf("Expense %d", i+1),
			Date:        "2026-02-10",
			Amount:      "100.10",
		})
		files = append(files, FileInput{
			Name:    fmt.Sprintf("receipt%d.pdf", i+1),
			Content: []byte("%PDF-1.4 test"),
		})
	}
	return in, files
}

func storedDocument(status entity.StaffStatus, role entity.StaffRole) *entity.ReimbursementDocument {
	return &entity.ReimbursementDocument{
		ID:         1,
		DocumentID: "REIMB-0001",
		StudentID:  "STU-42",
		Event: entity.EventDetails{
			EventName:   "Annual Tech Fest",
			CouncilName: "Technical Council",
		},
		Bank: entity.BankDetails{
			AccountHolderName: "Asha Verma",
			AccountNumber:     "123456789012",
			IFSCCode:          "HDFC0001234",
			BankName:          "HDFC Bank",
		},
		TotalPaise:  15050,
		StaffType:   role,
		StaffStatus: status,
		Version:     3,
	}
}
