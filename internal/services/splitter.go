package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/labflowhq/labflow/internal/models"
)

// Splitter turns raw report text into requisitions. The processor takes it
// as an injected dependency so report layouts can bring their own parser.
type Splitter interface {
	Split(text string) ([]models.Requisition, error)
}

// TextSplitter is the reference line-oriented splitter. A requisition
// starts at a header line; "key: value" lines below it form sample rows,
// with the sample marker opening a new row. The declared count, when the
// report states one, is picked up from a "declared samples: N" line.
type TextSplitter struct {
	headerRe *regexp.Regexp
	countRe  *regexp.Regexp
	fieldRe  *regexp.Regexp
}

// NewTextSplitter creates the reference splitter.
func NewTextSplitter() *TextSplitter {
	return &TextSplitter{
		headerRe: regexp.MustCompile(`(?i)^\s*requisition\b`),
		countRe:  regexp.MustCompile(`(?i)^\s*declared\s+samples?\s*[:=]\s*(\d+)\s*$`),
		fieldRe:  regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_ ]*?)\s*[:=]\s*(.+?)\s*$`),
	}
}

// Split scans the text line by line. Text before the first requisition
// header is ignored.
func (s *TextSplitter) Split(text string) ([]models.Requisition, error) {
	var reqs []models.Requisition
	var current *models.Requisition
	var row models.SampleRow

	flushRow := func() {
		if current != nil && row != nil {
			current.Rows = append(current.Rows, row)
		}
		row = nil
	}
	flushReq := func() {
		flushRow()
		if current != nil {
			reqs = append(reqs, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r\f")

		if s.headerRe.MatchString(line) {
			flushReq()
			current = &models.Requisition{Index: len(reqs) + 1, Declared: -1}
			continue
		}
		if current == nil {
			continue
		}

		if m := s.countRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				current.Declared = n
			}
			continue
		}

		m := s.fieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		field := normalizeField(m[1])
		value := m[2]

		if field == models.MarkerField {
			flushRow()
			row = models.SampleRow{field: value}
			continue
		}
		if row != nil {
			row[field] = value
		}
	}
	flushReq()

	return reqs, nil
}

func normalizeField(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
