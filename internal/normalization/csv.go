package normalization

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadRawLogsCSV reads a raw bridge logs export (one row per log record).
// The topics column holds a bracketed list as written by the extraction
// step, e.g. ['0xe856...', '0x000...'].
func ReadRawLogsCSV(path string) ([]RawLogRecord, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	col := columnIndex(header)
	records := make([]RawLogRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, RawLogRecord{
			Address:          field(row, col, "address"),
			Topics:           parseTopicsList(field(row, col, "topics")),
			Data:             field(row, col, "data"),
			BlockNumber:      field(row, col, "blockNumber"),
			TimeStamp:        field(row, col, "timeStamp"),
			GasPrice:         field(row, col, "gasPrice"),
			GasUsed:          field(row, col, "gasUsed"),
			LogIndex:         field(row, col, "logIndex"),
			TransactionIndex: field(row, col, "transactionIndex"),
			TransactionHash:  field(row, col, "transactionHash"),
			BlockHash:        field(row, col, "blockHash"),
		})
	}
	return records, nil
}

// ReadRawTransactionsCSV reads a raw destination-chain transaction export.
func ReadRawTransactionsCSV(path string) ([]RawTransactionRecord, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	col := columnIndex(header)
	records := make([]RawTransactionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, RawTransactionRecord{
			BlockNumber:     field(row, col, "blockNumber"),
			TimeStamp:       field(row, col, "timeStamp"),
			Hash:            field(row, col, "hash"),
			Nonce:           field(row, col, "nonce"),
			From:            field(row, col, "from"),
			To:              field(row, col, "to"),
			Value:           field(row, col, "value"),
			GasPrice:        field(row, col, "gasPrice"),
			GasUsed:         field(row, col, "gasUsed"),
			IsError:         field(row, col, "isError"),
			TxReceiptStatus: field(row, col, "txreceipt_status"),
			MethodID:        field(row, col, "methodId"),
			FunctionName:    field(row, col, "functionName"),
		})
	}
	return records, nil
}

// readCSV loads a CSV file and splits off the header row.
func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged exports

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv %s is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// columnIndex maps header names to positions.
func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

// field returns a named column from a row, empty when absent.
func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseTopicsList parses a bracketed topics list. Accepts both
// ['0xa', '0xb'] and a plain comma-separated form.
func parseTopicsList(s string) []string {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.Trim(strings.TrimSpace(p), `'"`)
		if t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
