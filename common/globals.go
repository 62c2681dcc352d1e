package common

const (
	// decimal places persisted for each kind of numeric column
	ScaleAmount   = 2
	ScaleHours    = 1
	ScaleQuantity = 3
	ScalePercent  = 2

	JournalSourceInvoice = "invoice"
	JournalSourceExpense = "expense"
	JournalSourceTrust   = "trust_transaction"

	JurisdictionTypeFederal = "federal"
	JurisdictionTypeState   = "state"
	JurisdictionTypeLocal   = "local"

	DefaultRecordExchange = "counselhub_records"

	EventCreated = "created"
	EventUpdated = "updated"
)
