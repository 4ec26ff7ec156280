package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDArbitrum = 42161
	ChainIDBase     = 8453
	ChainIDBSC      = 56
	ChainIDFiat     = 0 // Off-chain / fiat
)

// Well-known token addresses on Base
var (
	AddrWETHBase = common.HexToAddress("0x4200000000000000000000000000000000000006")
	AddrUSDCBase = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	AddrDAIBase  = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
)

// Well-known token addresses on Arbitrum One
var (
	AddrWETHArbitrum = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	AddrUSDCArbitrum = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	AddrUSDTArbitrum = common.HexToAddress("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9")
	AddrARBArbitrum  = common.HexToAddress("0x912CE59144191C1204E64559FE8253a0e49E6548")
)

// Well-known token addresses on BNB Smart Chain
var (
	AddrWBNBBSC = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEF60aF814a3f6F0Ee75")
	AddrUSDTBSC = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	AddrBUSDBSC = common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56")
	AddrCAKEBSC = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
)

// Well-known AssetIDs
var (
	// Base
	IDBaseETH  = NewNativeAssetID(ChainIDBase)
	IDBaseWETH = NewTokenAssetID(ChainIDBase, AddrWETHBase)
	IDBaseUSDC = NewTokenAssetID(ChainIDBase, AddrUSDCBase)
	IDBaseDAI  = NewTokenAssetID(ChainIDBase, AddrDAIBase)

	// Arbitrum One
	IDArbitrumETH  = NewNativeAssetID(ChainIDArbitrum)
	IDArbitrumWETH = NewTokenAssetID(ChainIDArbitrum, AddrWETHArbitrum)
	IDArbitrumUSDC = NewTokenAssetID(ChainIDArbitrum, AddrUSDCArbitrum)
	IDArbitrumUSDT = NewTokenAssetID(ChainIDArbitrum, AddrUSDTArbitrum)
	IDArbitrumARB  = NewTokenAssetID(ChainIDArbitrum, AddrARBArbitrum)

	// BNB Smart Chain
	IDBSCBNB  = NewNativeAssetID(ChainIDBSC)
	IDBSCWBNB = NewTokenAssetID(ChainIDBSC, AddrWBNBBSC)
	IDBSCUSDT = NewTokenAssetID(ChainIDBSC, AddrUSDTBSC)
	IDBSCBUSD = NewTokenAssetID(ChainIDBSC, AddrBUSDBSC)
	IDBSCCAKE = NewTokenAssetID(ChainIDBSC, AddrCAKEBSC)

	// Fiat
	IDUSD = NewFiatAssetID("USD")
)

// Well-known Assets (pre-created instances)
var (
	// Base
	BaseETH  = NewAssetWithName(IDBaseETH, "ETH", "Ethereum", 18)
	BaseWETH = NewAssetWithName(IDBaseWETH, "WETH", "Wrapped Ether", 18)
	BaseUSDC = NewAssetWithName(IDBaseUSDC, "USDC", "USD Coin", 6)
	BaseDAI  = NewAssetWithName(IDBaseDAI, "DAI", "Dai Stablecoin", 18)

	// Arbitrum One
	ArbitrumETH  = NewAssetWithName(IDArbitrumETH, "ETH", "Ethereum", 18)
	ArbitrumWETH = NewAssetWithName(IDArbitrumWETH, "WETH", "Wrapped Ether", 18)
	ArbitrumUSDC = NewAssetWithName(IDArbitrumUSDC, "USDC", "USD Coin", 6)
	ArbitrumUSDT = NewAssetWithName(IDArbitrumUSDT, "USDT", "Tether USD", 6)
	ArbitrumARB  = NewAssetWithName(IDArbitrumARB, "ARB", "Arbitrum", 18)

	// BNB Smart Chain
	BSCBNB  = NewAssetWithName(IDBSCBNB, "BNB", "BNB", 18)
	BSCWBNB = NewAssetWithName(IDBSCWBNB, "WBNB", "Wrapped BNB", 18)
	BSCUSDT = NewAssetWithName(IDBSCUSDT, "USDT", "Tether USD", 18)
	BSCBUSD = NewAssetWithName(IDBSCBUSD, "BUSD", "Binance USD", 18)
	BSCCAKE = NewAssetWithName(IDBSCCAKE, "CAKE", "PancakeSwap", 18)

	// Fiat
	USD = NewAssetWithName(IDUSD, "USD", "US Dollar", 2)
)

// DefaultRegistry returns a registry pre-populated with well-known assets
// on the supported networks.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Base
	r.Register(BaseETH)
	r.Register(BaseWETH)
	r.Register(BaseUSDC)
	r.Register(BaseDAI)

	// Arbitrum One
	r.Register(ArbitrumETH)
	r.Register(ArbitrumWETH)
	r.Register(ArbitrumUSDC)
	r.Register(ArbitrumUSDT)
	r.Register(ArbitrumARB)

	// BNB Smart Chain
	r.Register(BSCBNB)
	r.Register(BSCWBNB)
	r.Register(BSCUSDT)
	r.Register(BSCBUSD)
	r.Register(BSCCAKE)

	// Fiat
	r.Register(USD)

	return r
}

// MustNewToken creates and registers a new ERC20 token asset.
// Convenience for wiring config-declared tokens at startup.
func (r *Registry) MustNewToken(chainID uint64, address common.Address, symbol string, decimals uint8) *Asset {
	a := NewAsset(NewTokenAssetID(chainID, address), symbol, decimals)
	r.Register(a)
	return a
}
