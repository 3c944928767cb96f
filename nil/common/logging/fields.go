package logging

const (
	FieldComponent = "component"

	FieldDuration = "duration"

	FieldBlockNumber = "blockNumber"
	FieldFromBlock   = "fromBlock"
	FieldToBlock     = "toBlock"

	FieldTxIndex        = "txIndex"
	FieldReceiptsNum    = "receiptsNum"
	FieldLogsNum        = "logsNum"
	FieldCumulativeGas  = "cumulativeGas"
	FieldPrevCumulative = "prevCumulativeGas"

	FieldSubscription = "subscription"
	FieldAttempt      = "attempt"

	FieldDbPath = "dbPath"
)
