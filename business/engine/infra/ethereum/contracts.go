package ethereum

// ExecutorABI is the interface of the deployed flash-loan executor:
// it borrows the quote asset, runs both swap legs, repays the loan
// plus premium, and reverts if the round trip returns less than
// minReturn.
const ExecutorABI = `[
	{
		"name": "executeArbitrage",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "asset", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "buyRouter", "type": "address"},
			{"name": "sellRouter", "type": "address"},
			{"name": "intermediate", "type": "address"},
			{"name": "minReturn", "type": "uint256"}
		],
		"outputs": []
	}
]`
