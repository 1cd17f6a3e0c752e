// Package export writes query results to the object store as downloadable
// report files.
package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/clockchat/clockchat/internal/query"
	"github.com/clockchat/clockchat/internal/storage"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatCSV, FormatParquet:
		return Format(value), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// Result describes one stored export object.
type Result struct {
	Key       string `json:"key"`
	Format    Format `json:"format"`
	RowCount  int    `json:"row_count"`
	Truncated bool   `json:"truncated"`
	Size      int64  `json:"size"`
}

type Exporter struct {
	store   storage.ObjectStore
	maxRows int
	now     func() time.Time
	newID   func() (string, error)
}

const defaultMaxRows = 100000

func New(store storage.ObjectStore, maxRows int) *Exporter {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Exporter{store: store, maxRows: maxRows, now: time.Now, newID: newExportID}
}

// Export encodes the result set and stores it under the tenant's export
// prefix. Results longer than the configured cap are cut and marked
// truncated.
func (e *Exporter) Export(ctx context.Context, tenantID string, result query.ResultSet, format Format) (Result, error) {
	rows := result.Rows
	truncated := result.Truncated
	if len(rows) > e.maxRows {
		rows = rows[:e.maxRows]
		truncated = true
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		data, err = encodeCSV(result.Columns, rows)
		contentType = "text/csv"
	case FormatParquet:
		data, err = encodeParquet(rows)
		contentType = "application/vnd.apache.parquet"
	default:
		return Result{}, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return Result{}, err
	}

	exportID, err := e.newID()
	if err != nil {
		return Result{}, fmt.Errorf("generate export id: %w", err)
	}
	key, err := storage.BuildExportPath(tenantID, exportID, string(format), e.now())
	if err != nil {
		return Result{}, err
	}

	info, err := e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"tenant_id": tenantID,
			"format":    string(format),
			"row_count": strconv.Itoa(len(rows)),
			"truncated": strconv.FormatBool(truncated),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("store export: %w", err)
	}

	return Result{
		Key:       info.Key,
		Format:    format,
		RowCount:  len(rows),
		Truncated: truncated,
		Size:      int64(len(data)),
	}, nil
}

func encodeCSV(columns []string, rows []query.Row) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buf)

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			record[i] = formatCell(row[column])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// parquetExportRow keeps the schema stable across arbitrary result shapes by
// carrying each row as JSON next to its position.
type parquetExportRow struct {
	RowIndex int64  `parquet:"row_index"`
	RowJSON  string `parquet:"row_json"`
}

func encodeParquet(rows []query.Row) ([]byte, error) {
	encoded := make([]parquetExportRow, 0, len(rows))
	for i, row := range rows {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("marshal export row %d: %w", i, err)
		}
		encoded = append(encoded, parquetExportRow{RowIndex: int64(i), RowJSON: string(rowJSON)})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetExportRow](buf)
	if _, err := writer.Write(encoded); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func newExportID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
