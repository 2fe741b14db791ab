// Package importer turns agent spreadsheets (xlsx or csv) into agents
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Options configures parsing
type Options struct {
	// Charset of CSV files: "utf-8" (default), "windows-1252" or "iso-8859-1"
	Charset string
}

// Result is the parsed content of one file
type Result struct {
	Format   string
	Agents   []models.Agent
	Warnings []models.ImportWarning
}

// Parser reads agent spreadsheets
type Parser struct {
	logger  ectologger.Logger
	options Options
}

// NewParser creates a new parser
func NewParser(logger ectologger.Logger, options Options) *Parser {
	return &Parser{
		logger:  logger,
		options: options,
	}
}

// ParseFile parses a spreadsheet, choosing the format from the file extension.
// Rows missing a last or first name are skipped and reported as warnings.
func (p *Parser) ParseFile(ctx context.Context, name string, r io.Reader) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.Parser.ParseFile")
	defer span.End()

	log := p.logger.WithContext(ctx).WithField("file_name", name)

	var (
		format string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		format = FormatXLSX
		rows, err = readXLSX(r)
	case ".csv":
		format = FormatCSV
		rows, err = readCSV(r, p.options.Charset)
	default:
		return nil, httperror.NewHTTPErrorf(http.StatusUnsupportedMediaType, "unsupported file type %q: expected .xlsx or .csv", filepath.Ext(name))
	}
	if err != nil {
		log.WithError(err).Warn("Failed to read spreadsheet")
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to read %s: %v", name, err)
	}

	result, err := parseRows(rows)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: %v", name, err)
	}
	result.Format = format

	metrics.ImportedRowsTotal.WithLabelValues(format, "imported").Add(float64(len(result.Agents)))
	metrics.ImportedRowsTotal.WithLabelValues(format, "skipped").Add(float64(len(result.Warnings)))

	log.WithFields(map[string]any{
		"format":   format,
		"agents":   len(result.Agents),
		"warnings": len(result.Warnings),
	}).Info("Parsed spreadsheet")

	return result, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader, charset string) ([][]string, error) {
	decoder, err := decoderFor(charset)
	if err != nil {
		return nil, err
	}
	if decoder != nil {
		r = transform.NewReader(r, decoder.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func decoderFor(charset string) (encoding.Encoding, error) {
	switch normalizers.Normalize(charset) {
	case "", "utf8":
		return nil, nil
	case "windows1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso88591", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}

// detectDelimiter picks ';' when the header line has more semicolons than
// commas, as French locale spreadsheet exports do
func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}
