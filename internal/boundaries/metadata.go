package boundaries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// FIRInfo is one line of a VATSpy-style FIR table
type FIRInfo struct {
	ICAO           string
	Name           string
	CallsignPrefix string
	Boundary       string
}

// LoadFIRMetadata reads a pipe separated ICAO|Name|CallsignPrefix|Boundary
// table keyed by ICAO. Comment lines start with ';'. Short records are skipped.
func LoadFIRMetadata(path string) (map[string]FIRInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FIR metadata %s: %w", path, err)
	}
	defer file.Close()

	return ParseFIRMetadata(file)
}

func ParseFIRMetadata(r io.Reader) (map[string]FIRInfo, error) {
	reader := csv.NewReader(r)
	reader.Comma = '|'
	reader.Comment = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	out := make(map[string]FIRInfo)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read FIR metadata record: %w", err)
		}
		if len(record) < 4 {
			continue
		}

		info := FIRInfo{
			ICAO:           strings.TrimSpace(record[0]),
			Name:           strings.TrimSpace(record[1]),
			CallsignPrefix: strings.TrimSpace(record[2]),
			Boundary:       strings.TrimSpace(record[3]),
		}
		if info.ICAO == "" {
			continue
		}
		if info.Boundary == "" {
			info.Boundary = info.ICAO
		}
		out[info.ICAO] = info
	}
	return out, nil
}
