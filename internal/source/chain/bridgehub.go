package chain

import (
	"context"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/ethclient"
)

// bridgehubABI covers the registry view calls the source performs.
const bridgehubABI = `[
  {"type":"function","name":"getAllZKChainChainIDs","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getZKChain","stateMutability":"view","inputs":[{"name":"_chainId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"sharedBridge","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"admin","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"assetRouter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

var hubABI = mustABI(bridgehubABI)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Caller is the narrow RPC surface the source needs; *ethclient.Client
// satisfies it, and tests substitute a fake.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dialer opens a Caller against an RPC endpoint.
type Dialer func(ctx context.Context, rpc string) (Caller, error)

// DialEthclient is the production Dialer backed by go-ethereum's ethclient.
func DialEthclient(ctx context.Context, rpc string) (Caller, error) {
	client, err := ethclient.DialContext(ctx, rpc)
	if err != nil {
		return nil, err
	}
	return client, nil
}
