package db

type TableName string

const (
	// block number -> compressed list of encoded receipts
	blockReceiptsTable = TableName("BlockReceipts")
	// block number -> aggregated logs bloom
	blockBloomTable = TableName("BlockBloom")

	LastBlockTable = TableName("LastBlock")
)

var lastBlockKey = []byte("head")

func MakeKey(table TableName, key []byte) []byte {
	return append([]byte(table+":"), key...)
}
