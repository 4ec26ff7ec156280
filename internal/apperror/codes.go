package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField Code = "REQUIRED_FIELD"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidState  Code = "INVALID_STATE"
	CodeNotFound      Code = "NOT_FOUND"

	// Configuration: fatal at boot, the process does not start.
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Pipeline error codes, one per expected failure mode of a scan/execute cycle.
const (
	// Venue quote errors: the venue is skipped for the current cycle,
	// never escalated.
	CodeTransientQuote Code = "TRANSIENT_QUOTE_ERROR"
	CodeQuoteReverted  Code = "QUOTE_REVERTED"
	CodeInvalidQuote   Code = "INVALID_QUOTE"

	// Token safety errors
	CodeSafetyRejected     Code = "SAFETY_REJECTED"
	CodeSafetyInconclusive Code = "SAFETY_INCONCLUSIVE"
	CodeHoneypotAPIError   Code = "HONEYPOT_API_ERROR"
	CodeLiquidityAPIError  Code = "LIQUIDITY_API_ERROR"

	// Execution errors
	CodeSimulationFailed    Code = "SIMULATION_FAILED"
	CodeExecutionFailed     Code = "EXECUTION_FAILED"
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"
	CodeSlippageExceeded    Code = "SLIPPAGE_EXCEEDED"
	CodeExecutionDenied     Code = "EXECUTION_DENIED"

	// Persistence errors: logged, the loop continues in memory.
	CodePersistence Code = "PERSISTENCE_ERROR"
)

// Infrastructure error codes
const (
	// Network gateway errors
	CodeGatewayConnectionFailed Code = "GATEWAY_CONNECTION_FAILED"
	CodeGatewayRPCError         Code = "GATEWAY_RPC_ERROR"
	CodeReceiptTimeout          Code = "RECEIPT_TIMEOUT"
	CodeNetworkUnknown          Code = "NETWORK_UNKNOWN"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	// Price oracle errors
	CodeOracleStale       Code = "ORACLE_STALE"
	CodeOracleUnavailable Code = "ORACLE_UNAVAILABLE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
