// Package normalization turns raw explorer exports into clean rows:
// bridge MessageSent logs into BridgeDeposit and destination-chain
// transaction records into Transaction. Malformed rows are rejected here
// with per-reason counts; nothing malformed propagates into aggregation.
package normalization

// RawLogRecord mirrors one row of an Etherscan getLogs export. All fields
// are kept as strings; numeric fields may be hex ("0x...") or decimal.
type RawLogRecord struct {
	Address          string
	Topics           []string
	Data             string
	BlockNumber      string
	TimeStamp        string
	GasPrice         string
	GasUsed          string
	LogIndex         string
	TransactionIndex string
	TransactionHash  string
	BlockHash        string
}

// RawTransactionRecord mirrors one row of an Etherscan account txlist
// export for the destination chain.
type RawTransactionRecord struct {
	BlockNumber     string
	TimeStamp       string
	Hash            string
	Nonce           string
	From            string
	To              string
	Value           string
	GasPrice        string
	GasUsed         string
	IsError         string
	TxReceiptStatus string
	MethodID        string
	FunctionName    string
}

// Stats reports the outcome of a normalization pass. Rejected rows are
// excluded, never propagated; Reasons counts rejections by cause.
type Stats struct {
	Total      int
	Accepted   int
	Rejected   int
	Duplicates int
	Reasons    map[string]int
}

func newStats() *Stats {
	return &Stats{Reasons: make(map[string]int)}
}

func (s *Stats) reject(reason string) {
	s.Rejected++
	s.Reasons[reason]++
}
