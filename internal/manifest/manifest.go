// Package manifest loads the CSV file describing which company receives which certificate
package manifest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Error types for manifest loading
var (
	ErrNotFound      = errors.New("manifest file not found")
	ErrInvalidFormat = errors.New("invalid manifest format")
	ErrEmpty         = errors.New("no companies found in manifest")
)

// Row is one company's certificate-update job
type Row struct {
	// Index is the 1-based position of the row among the data rows
	Index           int    `json:"index" yaml:"index"`
	Identifier      string `json:"identifier" yaml:"identifier"`
	Name            string `json:"name" yaml:"name"`
	CertificateRoot string `json:"certificateRoot,omitempty" yaml:"certificateRoot,omitempty"`
	CertificateFile string `json:"certificateFile" yaml:"certificateFile"`
	Password        string `json:"-" yaml:"-"`
}

// CertificatePath joins the root with the file when a root is given, else returns the file verbatim
func (r Row) CertificatePath() string {
	if strings.TrimSpace(r.CertificateRoot) == "" {
		return r.CertificateFile
	}
	return filepath.Join(r.CertificateRoot, r.CertificateFile)
}

// DisplayName falls back to a placeholder for rows without a name
func (r Row) DisplayName() string {
	if r.Name == "" {
		return "Unknown"
	}
	return r.Name
}

type column int

const (
	colIdentifier column = iota
	colName
	colRoot
	colFile
	colPassword
)

// headerAliases maps accepted header names onto columns
var headerAliases = map[string]column{
	"inscricao_federal": colIdentifier,
	"identifier":        colIdentifier,
	"nome":              colName,
	"name":              colName,
	"caminho_raiz":      colRoot,
	"certificate_root":  colRoot,
	"caminho_arquivo":   colFile,
	"certificate_file":  colFile,
	"senha":             colPassword,
	"password":          colPassword,
}

var requiredColumns = map[column]string{
	colIdentifier: "inscricao_federal",
	colFile:       "caminho_arquivo",
	colPassword:   "senha",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and validates the manifest at path
func Load(path string) ([]Row, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", ErrInvalidFormat, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(content)
}

// Parse decodes manifest content. The delimiter is ',' unless the header line uses ';'.
func Parse(content []byte) ([]Row, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	// short rows are kept; the batch skips them when a required value is absent
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		field := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		rows = append(rows, Row{
			Index:           len(rows) + 1,
			Identifier:      strings.TrimSpace(field(colIdentifier)),
			Name:            strings.TrimSpace(field(colName)),
			CertificateRoot: strings.TrimSpace(field(colRoot)),
			CertificateFile: strings.TrimSpace(field(colFile)),
			// passwords may legitimately carry surrounding spaces
			Password: field(colPassword),
		})
	}

	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func mapHeader(header []string) (map[column]int, error) {
	index := make(map[column]int, len(header))
	for i, name := range header {
		if c, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	var missing []string
	for c, name := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrInvalidFormat, strings.Join(missing, ", "))
	}
	return index, nil
}

func detectDelimiter(content []byte) rune {
	firstLine, _, _ := bytes.Cut(content, []byte("\n"))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}
