package normalization

import (
	"math/big"
	"strings"
	"time"

	"linea-analytics/internal/domain"
)

// MessageSentTopic is keccak256("MessageSent(address,address,uint256,uint256,uint256,bytes,bytes32)"),
// the topic0 of bridge deposit events on the canonical bridge contract.
const MessageSentTopic = "0xe856c2b8bd4eb0027ce32eeaf595c21b0b6b4644b326e5b7bd80a1cf8db72e6c"

// Rejection reasons for bridge log decoding.
const (
	reasonWrongTopic   = "wrong_event_signature"
	reasonShortTopics  = "missing_indexed_topics"
	reasonShortData    = "short_data_field"
	reasonBadTimestamp = "bad_timestamp"
	reasonBadAddress   = "bad_address"
	reasonBadNumber    = "bad_numeric_field"
)

// DecodeBridgeLogs decodes raw MessageSent logs into BridgeDeposit rows.
// Rows that cannot be decoded are dropped and counted in Stats.Reasons.
func DecodeBridgeLogs(raw []RawLogRecord) ([]*domain.BridgeDeposit, *Stats) {
	stats := newStats()
	stats.Total = len(raw)

	deposits := make([]*domain.BridgeDeposit, 0, len(raw))
	for i := range raw {
		d, reason := decodeBridgeLog(&raw[i])
		if reason != "" {
			stats.reject(reason)
			continue
		}
		deposits = append(deposits, d)
		stats.Accepted++
	}
	return deposits, stats
}

// decodeBridgeLog decodes a single log record. Returns a non-empty reason
// on rejection.
//
// MessageSent layout:
//
//	topics[1] = _from (indexed), topics[2] = _to (indexed), topics[3] = _messageHash
//	data[0] = fee (uint256), data[1] = value (uint256), data[2] = nonce (uint256)
func decodeBridgeLog(raw *RawLogRecord) (*domain.BridgeDeposit, string) {
	if len(raw.Topics) < 4 {
		return nil, reasonShortTopics
	}
	if !strings.EqualFold(strings.TrimSpace(raw.Topics[0]), MessageSentTopic) {
		return nil, reasonWrongTopic
	}

	from, ok := normalizeAddress(topicAddress(raw.Topics[1]))
	if !ok {
		return nil, reasonBadAddress
	}
	to, ok := normalizeAddress(topicAddress(raw.Topics[2]))
	if !ok {
		return nil, reasonBadAddress
	}
	messageHash := strings.ToLower(strings.TrimSpace(raw.Topics[3]))

	data := strings.TrimPrefix(strings.TrimSpace(raw.Data), "0x")
	feeHex, ok1 := hexSlot(data, 0)
	valueHex, ok2 := hexSlot(data, 1)
	nonceHex, ok3 := hexSlot(data, 2)
	if !ok1 || !ok2 || !ok3 {
		return nil, reasonShortData
	}

	feeETH, err := parseWei("0x"+feeHex, weiPerETH)
	if err != nil {
		return nil, reasonBadNumber
	}
	valueETH, err := parseWei("0x"+valueHex, weiPerETH)
	if err != nil {
		return nil, reasonBadNumber
	}
	nonce := new(big.Int)
	if _, ok := nonce.SetString(nonceHex, 16); !ok {
		return nil, reasonBadNumber
	}

	ts, err := parseInt(raw.TimeStamp)
	if err != nil || ts <= 0 {
		return nil, reasonBadTimestamp
	}

	blockNumber, err := parseInt(raw.BlockNumber)
	if err != nil {
		return nil, reasonBadNumber
	}
	gasPrice, err := parseInt(raw.GasPrice)
	if err != nil {
		return nil, reasonBadNumber
	}
	gasUsed, err := parseInt(raw.GasUsed)
	if err != nil {
		return nil, reasonBadNumber
	}
	logIndex, err := parseInt(raw.LogIndex)
	if err != nil {
		return nil, reasonBadNumber
	}
	txIndex, err := parseInt(raw.TransactionIndex)
	if err != nil {
		return nil, reasonBadNumber
	}

	return &domain.BridgeDeposit{
		TxHash:      strings.ToLower(strings.TrimSpace(raw.TransactionHash)),
		BlockNumber: blockNumber,
		Timestamp:   time.Unix(ts, 0).UTC(),
		FromAddress: from,
		ToAddress:   to,
		MessageHash: messageHash,
		ValueETH:    valueETH,
		FeeETH:      feeETH,
		Nonce:       nonce.Int64(),
		GasPrice:    gasPrice,
		GasUsed:     gasUsed,
		LogIndex:    int32(logIndex),
		TxIndex:     int32(txIndex),
	}, ""
}
