package services

import (
	"testing"
)

const sampleReport = `Laboratory Report
Issued by ACME Diagnostics

REQUISITION 2024-00172
declared samples: 2
sample_id: S-001
reception date: 2024-05-02
matrix: soil
sample_id: S-002
reception date: 2024-05-02

Requisition 2024-00173
sample_id: S-101
reception date: 2024-05-03
`

func TestSplitGroupsRowsUnderRequisitions(t *testing.T) {
	reqs, err := NewTextSplitter().Split(sampleReport)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requisitions, want 2", len(reqs))
	}

	first := reqs[0]
	if first.Index != 1 || first.Declared != 2 {
		t.Fatalf("first requisition index/declared = %d/%d", first.Index, first.Declared)
	}
	if len(first.Rows) != 2 {
		t.Fatalf("first requisition rows = %d, want 2", len(first.Rows))
	}
	if first.Rows[0]["sample_id"] != "S-001" || first.Rows[0]["reception_date"] != "2024-05-02" {
		t.Fatalf("first row = %v", first.Rows[0])
	}
	if first.Rows[1]["sample_id"] != "S-002" {
		t.Fatalf("second row = %v", first.Rows[1])
	}

	second := reqs[1]
	if second.Declared != -1 {
		t.Fatalf("requisition without declared count should report -1, got %d", second.Declared)
	}
	if len(second.Rows) != 1 || second.Rows[0]["sample_id"] != "S-101" {
		t.Fatalf("second requisition rows = %v", second.Rows)
	}
}

func TestSplitIgnoresPreambleFields(t *testing.T) {
	text := "sample_id: ORPHAN\nfoo: bar\n\nrequisition A\nsample_id: S-1\n"
	reqs, err := NewTextSplitter().Split(text)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("got %d requisitions, want 1", len(reqs))
	}
	if len(reqs[0].Rows) != 1 || reqs[0].Rows[0]["sample_id"] != "S-1" {
		t.Fatalf("rows = %v", reqs[0].Rows)
	}
}

func TestSplitEmptyText(t *testing.T) {
	reqs, err := NewTextSplitter().Split("")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(reqs) != 0 {
		t.Fatalf("empty text should yield no requisitions, got %d", len(reqs))
	}
}

func TestSplitNormalizesFieldNames(t *testing.T) {
	text := "requisition X\nsample_id: S-9\nReception Date: 2024-06-01\n"
	reqs, err := NewTextSplitter().Split(text)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got := reqs[0].Rows[0]["reception_date"]; got != "2024-06-01" {
		t.Fatalf("normalized field missing, row = %v", reqs[0].Rows[0])
	}
}
