// Package source reads transaction exports written as JSON Lines, one
// document per line.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/theirongolddev/kantong/internal/model"
)

// ParseResult holds the output of parsing a single export file.
type ParseResult struct {
	File         DiscoveredFile
	Transactions []model.Transaction
	ParseErrors  int
	Skipped      int
	Err          error
}

// ParseFile reads one export. Lines that are not JSON, or whose type is
// not a transaction kind, are counted and skipped. Documents repeating an
// id keep the last occurrence.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	res := ParseResult{File: df}
	byID := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var doc RawDoc
		if err := json.Unmarshal(line, &doc); err != nil {
			res.ParseErrors++
			continue
		}

		tx, ok := toTransaction(doc)
		if !ok {
			res.Skipped++
			continue
		}

		if tx.ID != "" {
			if i, dup := byID[tx.ID]; dup {
				res.Transactions[i] = tx
				continue
			}
			byID[tx.ID] = len(res.Transactions)
		}
		res.Transactions = append(res.Transactions, tx)
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{File: df, Err: err}
	}
	return res
}

func toTransaction(doc RawDoc) (model.Transaction, bool) {
	kind := model.Kind(strings.ToLower(strings.TrimSpace(doc.Type)))
	if !kind.Valid() {
		return model.Transaction{}, false
	}
	return model.Transaction{
		ID:          strings.TrimSpace(doc.ID),
		Kind:        kind,
		Category:    model.Category(strings.TrimSpace(doc.Category)),
		Amount:      doc.Amount,
		Description: doc.Description,
		OccurredAt:  doc.Timestamp.Time,
	}, true
}
