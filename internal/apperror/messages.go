package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField: "Required field is missing",
	CodeInvalidInput:  "Invalid input provided",
	CodeInvalidState:  "Invalid state for this operation",
	CodeNotFound:      "Resource not found",

	// Configuration
	CodeConfigInvalid: "Configuration is invalid",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Pipeline errors
	CodeTransientQuote:      "Venue quote failed or timed out",
	CodeQuoteReverted:       "Quote call reverted",
	CodeInvalidQuote:        "Invalid quote data",
	CodeSafetyRejected:      "Token rejected by safety filter",
	CodeSafetyInconclusive:  "Token safety check inconclusive",
	CodeHoneypotAPIError:    "Honeypot assessment service error",
	CodeLiquidityAPIError:   "Liquidity assessment service error",
	CodeSimulationFailed:    "Pre-flight simulation failed",
	CodeExecutionFailed:     "Transaction execution failed",
	CodeGasEstimationFailed: "Gas estimation failed",
	CodeSlippageExceeded:    "Slippage exceeds configured maximum",
	CodeExecutionDenied:     "Execution denied by risk manager",
	CodePersistence:         "Failed to persist state",

	// Network gateway errors
	CodeGatewayConnectionFailed: "Failed to connect to network node",
	CodeGatewayRPCError:         "Network RPC call failed",
	CodeReceiptTimeout:          "Timed out waiting for transaction receipt",
	CodeNetworkUnknown:          "Network is not configured",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	// Price oracle errors
	CodeOracleStale:       "Price oracle data is stale",
	CodeOracleUnavailable: "Price oracle unavailable",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
