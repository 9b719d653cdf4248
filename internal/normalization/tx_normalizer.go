package normalization

import (
	"strings"
	"time"

	"linea-analytics/internal/domain"
)

// NormalizeTransactions cleans raw destination-chain transaction records:
// duplicate hashes are dropped (extraction overlap artifacts, first
// occurrence wins), hex fields converted, wei scaled to ETH/gwei, and rows
// with unusable timestamps or sender addresses rejected with counts.
func NormalizeTransactions(raw []RawTransactionRecord) ([]*domain.Transaction, *Stats) {
	stats := newStats()
	stats.Total = len(raw)

	seen := make(map[string]struct{}, len(raw))
	txs := make([]*domain.Transaction, 0, len(raw))

	for i := range raw {
		r := &raw[i]

		hash := strings.ToLower(strings.TrimSpace(r.Hash))
		if hash == "" {
			stats.reject("missing_hash")
			continue
		}
		if _, dup := seen[hash]; dup {
			stats.Duplicates++
			continue
		}
		seen[hash] = struct{}{}

		tx, reason := normalizeTransaction(r, hash)
		if reason != "" {
			stats.reject(reason)
			continue
		}
		txs = append(txs, tx)
		stats.Accepted++
	}
	return txs, stats
}

func normalizeTransaction(r *RawTransactionRecord, hash string) (*domain.Transaction, string) {
	ts, err := parseInt(r.TimeStamp)
	if err != nil || ts <= 0 {
		return nil, reasonBadTimestamp
	}

	from, ok := normalizeAddress(r.From)
	if !ok {
		return nil, reasonBadAddress
	}
	// To is empty for contract creation; keep it, but normalize when present.
	to := strings.ToLower(strings.TrimSpace(r.To))

	valueETH, err := parseWei(r.Value, weiPerETH)
	if err != nil {
		return nil, reasonBadNumber
	}
	gasPriceGwei, err := parseWei(r.GasPrice, weiPerGwei)
	if err != nil {
		return nil, reasonBadNumber
	}
	blockNumber, err := parseInt(r.BlockNumber)
	if err != nil {
		return nil, reasonBadNumber
	}
	gasUsed, err := parseInt(r.GasUsed)
	if err != nil {
		return nil, reasonBadNumber
	}
	nonce, err := parseInt(r.Nonce)
	if err != nil {
		return nil, reasonBadNumber
	}

	isError, _ := parseInt(r.IsError)
	txStatus, statusErr := parseInt(r.TxReceiptStatus)
	if statusErr != nil {
		txStatus = 0
	}

	return &domain.Transaction{
		Timestamp:    time.Unix(ts, 0).UTC(),
		BlockNumber:  blockNumber,
		Hash:         hash,
		FromAddress:  from,
		ToAddress:    to,
		ValueETH:     valueETH,
		GasPriceGwei: gasPriceGwei,
		GasUsed:      gasUsed,
		Nonce:        nonce,
		IsError:      isError != 0,
		TxStatus:     txStatus != 0,
		MethodID:     strings.TrimSpace(r.MethodID),
		FunctionName: strings.TrimSpace(r.FunctionName),
	}, ""
}
