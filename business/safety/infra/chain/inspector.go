// Package chain implements the ChainInspector port directly against
// the token contract over JSON-RPC.
package chain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dpolo-eth/flasharb/business/safety/app"
	"github.com/dpolo-eth/flasharb/business/safety/domain"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/circuitbreaker"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

// erc20ProbeABI covers the minimal surface probed during inspection.
const erc20ProbeABI = `[
  {"inputs":[],"name":"totalSupply","outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"decimals","outputs":[{"type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"type":"address"}],"stateMutability":"view","type":"function"}
]`

// Ensure Inspector implements ChainInspector.
var _ app.ChainInspector = (*Inspector)(nil)

// Inspector probes token contracts on chain: bytecode presence, ERC20
// surface, and ownership.
type Inspector struct {
	clients  map[uint64]*ethclient.Client
	breakers map[uint64]*circuitbreaker.CircuitBreaker[[]byte]
	probeABI abi.ABI
	logger   logger.LoggerInterface
}

// NewInspector creates an Inspector over per-chain RPC clients.
func NewInspector(clients map[uint64]*ethclient.Client, log logger.LoggerInterface) (*Inspector, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20ProbeABI))
	if err != nil {
		return nil, err
	}

	breakers := make(map[uint64]*circuitbreaker.CircuitBreaker[[]byte], len(clients))
	for chainID := range clients {
		cbCfg := circuitbreaker.DefaultConfig("inspector")
		breakers[chainID] = circuitbreaker.New[[]byte](cbCfg)
	}

	return &Inspector{
		clients:  clients,
		breakers: breakers,
		probeABI: parsedABI,
		logger:   log,
	}, nil
}

// Inspect checks the token contract's bytecode, ERC20 surface, and
// ownership state.
func (i *Inspector) Inspect(ctx context.Context, chainID uint64, token common.Address) (*domain.ContractReport, error) {
	client, ok := i.clients[chainID]
	if !ok {
		return nil, apperror.New(apperror.CodeNetworkUnknown,
			apperror.WithContext("no rpc client for chain"))
	}

	code, err := client.CodeAt(ctx, token, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeGatewayRPCError,
			apperror.WithCause(err),
			apperror.WithContext("fetching bytecode"))
	}

	report := &domain.ContractReport{
		HasBytecode: len(code) > 0,
		// Contracts without an owner() function cannot be owner-drained.
		OwnerRenounced: true,
	}
	if !report.HasBytecode {
		return report, nil
	}

	// ERC20 surface: both totalSupply and decimals must answer.
	_, supplyErr := i.call(ctx, chainID, client, token, "totalSupply")
	_, decimalsErr := i.call(ctx, chainID, client, token, "decimals")
	report.ImplementsERC20 = supplyErr == nil && decimalsErr == nil

	// Ownership is best effort: many tokens expose no owner() at all.
	if raw, err := i.call(ctx, chainID, client, token, "owner"); err == nil {
		if outputs, err := i.probeABI.Unpack("owner", raw); err == nil && len(outputs) == 1 {
			if owner, ok := outputs[0].(common.Address); ok {
				report.OwnerRenounced = owner == (common.Address{}) ||
					owner == common.HexToAddress("0x000000000000000000000000000000000000dEaD")
			}
		}
	}

	i.logger.Debug(ctx, "contract inspected",
		"chain_id", chainID,
		"token", token.Hex(),
		"erc20", report.ImplementsERC20,
		"owner_renounced", report.OwnerRenounced,
	)

	return report, nil
}

func (i *Inspector) call(ctx context.Context, chainID uint64, client *ethclient.Client, token common.Address, method string) ([]byte, error) {
	callData, err := i.probeABI.Pack(method)
	if err != nil {
		return nil, err
	}

	return i.breakers[chainID].Execute(func() ([]byte, error) {
		return client.CallContract(ctx, ethereum.CallMsg{
			To:   &token,
			Data: callData,
		}, nil)
	})
}
