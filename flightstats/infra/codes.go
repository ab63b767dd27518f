package infra

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const IATACodesColumn = "iata_codes"

var (
	ErrMissingColumn = errors.New("codes file has no " + IATACodesColumn + " column")
	ErrEmptyCodes    = errors.New("codes file has no IATA codes")
)

// ReadIATACodes lê a coluna iata_codes de um CSV com cabeçalho.
// Linhas vazias são ignoradas; códigos repetidos aparecem uma vez só.
func ReadIATACodes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening codes file: %w", err)
	}
	defer f.Close()

	codes, err := ParseIATACodes(f)
	if err != nil {
		return nil, fmt.Errorf("parsing iata codes from %s: %w", path, err)
	}
	return codes, nil
}

func ParseIATACodes(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCodes
		}
		return nil, err
	}

	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == IATACodesColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrMissingColumn
	}

	var codes []string
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(rec) {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(rec[col]))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return nil, ErrEmptyCodes
	}
	return codes, nil
}
