package audithook

// Action constants for audit events.
const (
	// Account actions
	ActionAccountCreated = "account.created"

	// Holding actions
	ActionHoldingCreated = "holding.created"
	ActionHoldingUpdated = "holding.updated"

	// Exchange actions
	ActionExchangeCompleted = "exchange.completed"
	ActionExchangeRejected  = "exchange.rejected"

	// Chain actions
	ActionBlockAppended      = "block.appended"
	ActionChainVerified      = "chain.verified"
	ActionIntegrityViolation = "chain.integrity_violation"
)

// Resource constants for audit events.
const (
	ResourceAccount  = "account"
	ResourceHolding  = "holding"
	ResourceExchange = "exchange"
	ResourceBlock    = "block"
	ResourceChain    = "chain"
)

// Category constants for audit events.
const (
	CategoryProvenance = "provenance"
	CategoryTrade      = "trade"
	CategoryIntegrity  = "integrity"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
