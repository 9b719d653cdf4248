package domain

import "time"

// BridgeDeposit is one decoded MessageSent event from the canonical bridge
// contract on Ethereum mainnet. Corresponds to the bridge_deposits table.
// Immutable once decoded.
type BridgeDeposit struct {
	TxHash      string // transaction hash (66 chars)
	BlockNumber int64
	Timestamp   time.Time // block timestamp, UTC
	FromAddress string    // bridging user (lowercase hex)
	ToAddress   string    // recipient on the destination chain
	MessageHash string    // bridge message hash
	ValueETH    float64   // bridged amount in ETH
	FeeETH      float64   // bridge fee in ETH
	Nonce       int64
	GasPrice    int64 // wei
	GasUsed     int64
	LogIndex    int32
	TxIndex     int32
}

// Transaction is one normalized destination-chain transaction.
// Corresponds to the linea_transactions table.
type Transaction struct {
	Timestamp    time.Time // block timestamp, UTC
	BlockNumber  int64
	Hash         string // PRIMARY KEY
	FromAddress  string // sender (lowercase hex)
	ToAddress    string // recipient, may be empty for contract creation
	ValueETH     float64
	GasPriceGwei float64
	GasUsed      int64
	Nonce        int64
	IsError      bool // execution reverted
	TxStatus     bool // receipt status
	MethodID     string
	FunctionName string
}
