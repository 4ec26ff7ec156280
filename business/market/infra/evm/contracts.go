// Package evm implements the VenueQuoter and GasPricer ports against
// V2-style DEX routers over JSON-RPC.
package evm

// RouterV2ABI is the minimal ABI for UniswapV2-compatible routers
// (Uniswap V2, PancakeSwap, SushiSwap, Aerodrome in vAMM mode).
const RouterV2ABI = `[
  {
    "inputs": [
      {"internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"internalType": "address[]", "name": "path", "type": "address[]"}
    ],
    "name": "getAmountsOut",
    "outputs": [
      {"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

// defaultSwapGas is the gas budget assumed for one router swap when the
// node cannot be asked for an estimate (view-only quoting).
const defaultSwapGas = 180_000
