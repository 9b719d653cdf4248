package normalization

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestReadRawLogsCSV(t *testing.T) {
	content := `address,topics,data,blockNumber,timeStamp,gasPrice,gasUsed,logIndex,transactionIndex,transactionHash,blockHash
0xd19d4b5d358258f05d7b411e21a1460d11b0876f,"['0xe856c2b8bd4eb0027ce32eeaf595c21b0b6b4644b326e5b7bd80a1cf8db72e6c', '0xaaa', '0xbbb', '0xccc']",0x00,100,1690848000,5,21000,0,1,0xdead,0xbeef
`
	records, err := ReadRawLogsCSV(writeTempCSV(t, content))
	if err != nil {
		t.Fatalf("ReadRawLogsCSV failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if len(r.Topics) != 4 {
		t.Fatalf("expected 4 topics, got %d: %v", len(r.Topics), r.Topics)
	}
	if r.Topics[0] != MessageSentTopic {
		t.Errorf("topic0 = %s", r.Topics[0])
	}
	if r.Topics[1] != "0xaaa" {
		t.Errorf("topic1 = %s, quotes not stripped", r.Topics[1])
	}
	if r.TransactionHash != "0xdead" {
		t.Errorf("tx hash = %s", r.TransactionHash)
	}
}

func TestReadRawTransactionsCSV_ColumnOrderIndependent(t *testing.T) {
	// Columns deliberately shuffled relative to the struct order.
	content := `hash,from,to,timeStamp,blockNumber,value,gasPrice,gasUsed,nonce,isError,txreceipt_status,methodId,functionName
0xabc,0x3333333333333333333333333333333333333333,0x4444444444444444444444444444444444444444,1691020800,100,1000,2,21000,0,0,1,0x,
`
	records, err := ReadRawTransactionsCSV(writeTempCSV(t, content))
	if err != nil {
		t.Fatalf("ReadRawTransactionsCSV failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Hash != "0xabc" {
		t.Errorf("hash = %s", records[0].Hash)
	}
	if records[0].TimeStamp != "1691020800" {
		t.Errorf("timeStamp = %s", records[0].TimeStamp)
	}
}

func TestReadRawLogsCSV_EmptyFile(t *testing.T) {
	if _, err := ReadRawLogsCSV(writeTempCSV(t, "")); err == nil {
		t.Error("expected error for empty csv")
	}
}

func TestParseTopicsList(t *testing.T) {
	got := parseTopicsList(`['0xa', '0xb']`)
	if len(got) != 2 || got[0] != "0xa" || got[1] != "0xb" {
		t.Errorf("got %v", got)
	}

	got = parseTopicsList("0xa,0xb")
	if len(got) != 2 {
		t.Errorf("plain form: got %v", got)
	}

	if got := parseTopicsList("[]"); got != nil {
		t.Errorf("empty list: got %v", got)
	}
}
