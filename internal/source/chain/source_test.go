package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/harvest"
)

// fakeCaller answers ABI-encoded view calls from a canned registry.
type fakeCaller struct {
	chainIDs []*big.Int
	proxies  map[string]common.Address // chain id -> diamond proxy
	shared   common.Address
	admin    common.Address
	router   common.Address

	failIDs    bool
	failProxy  map[string]bool
	failMethod map[string]bool
	closed     bool
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := hubABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if f.failMethod[method.Name] {
		return nil, fmt.Errorf("%s reverted", method.Name)
	}
	switch method.Name {
	case "getAllZKChainChainIDs":
		if f.failIDs {
			return nil, errors.New("registry unavailable")
		}
		return method.Outputs.Pack(f.chainIDs)
	case "getZKChain":
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		id := args[0].(*big.Int).String()
		if f.failProxy[id] {
			return nil, fmt.Errorf("chain %s lookup failed", id)
		}
		return method.Outputs.Pack(f.proxies[id])
	case "sharedBridge":
		return method.Outputs.Pack(f.shared)
	case "admin":
		return method.Outputs.Pack(f.admin)
	case "assetRouter":
		return method.Outputs.Pack(f.router)
	default:
		return nil, fmt.Errorf("unexpected method %s", method.Name)
	}
}

func (f *fakeCaller) Close() {
	f.closed = true
}

func testEcosystem() Ecosystem {
	return Ecosystem{
		Name:      "testnet",
		RPC:       "http://localhost:8545",
		Bridgehub: "0x35A54c8C757806eB6820629bc82d90E056394C92",
	}
}

func newTestSource(caller *fakeCaller, cfg Config) *Source {
	if len(cfg.Ecosystems) == 0 {
		cfg.Ecosystems = []Ecosystem{testEcosystem()}
	}
	dial := func(context.Context, string) (Caller, error) {
		return caller, nil
	}
	return New(dial, cfg, zap.NewNop())
}

func TestEnumerateEcosystems(t *testing.T) {
	t.Parallel()

	source := New(nil, Config{Ecosystems: []Ecosystem{
		{Name: "gateway stage", RPC: "a", Bridgehub: "0x1"},
		{Name: "gateway testnet", RPC: "b", Bridgehub: "0x2"},
		{Name: "mainnet", RPC: "c", Bridgehub: "0x3"},
	}, Prefix: "gateway"}, zap.NewNop())

	candidates, err := source.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "gateway stage", candidates[0].ID)
	assert.Equal(t, "a", candidates[0].Locator)
}

func TestEnumerateNoMatchIsFatal(t *testing.T) {
	t.Parallel()

	source := New(nil, Config{Prefix: "nothing-starts-with-this"}, zap.NewNop())
	_, err := source.Enumerate(context.Background())
	assert.ErrorIs(t, err, harvest.ErrNoCandidates)
}

func TestDefaultEcosystems(t *testing.T) {
	t.Parallel()

	ecos := DefaultEcosystems()
	require.Len(t, ecos, 6)
	byName := make(map[string]Ecosystem, len(ecos))
	for _, eco := range ecos {
		byName[eco.Name] = eco
	}
	assert.Equal(t, "0x303a465B659cBB0ab36eE643eA362c509EEb5213", byName["mainnet"].Bridgehub)
	assert.Equal(t, "0x0000000000000000000000000000000000010002", byName["gateway mainnet"].Bridgehub)
}

func TestHarvestCollectsRegistry(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{
		chainIDs: []*big.Int{big.NewInt(324), big.NewInt(300)},
		proxies: map[string]common.Address{
			"324": common.HexToAddress("0x32400084C286CF3E17e7B677ea9583e60a000324"),
			"300": common.HexToAddress("0x1234000000000000000000000000000000000300"),
		},
		shared: common.HexToAddress("0xaaaa000000000000000000000000000000000001"),
		admin:  common.HexToAddress("0xbbbb000000000000000000000000000000000002"),
		router: common.HexToAddress("0xcccc000000000000000000000000000000000003"),
	}
	source := newTestSource(caller, Config{
		Mapping: map[string]string{"324": "ZKsync Era"},
	})

	entries, err := source.Harvest(context.Background(), harvest.Candidate{ID: "testnet"})
	require.NoError(t, err)
	require.Len(t, entries, 6)

	era := entries["testnet DiamondProxy - 324 ZKsync Era"]
	assert.Equal(t, "0x32400084c286cf3e17e7b677ea9583e60a000324", era.Value)
	assert.Equal(t, "https://etherscan.io/address/0x32400084c286cf3e17e7b677ea9583e60a000324", era.URL)
	assert.Equal(t, "Diamond Proxy for 324", era.Description)

	// Unmapped ids fall back to a synthetic chain_{id} name.
	assert.Contains(t, entries, "testnet DiamondProxy - 300 chain_300")
	assert.NotContains(t, entries, "testnet DiamondProxy - 300")

	assert.Equal(t, "Bridgehub contract address", entries["testnet Bridgehub"].Description)
	assert.Equal(t, "0x35a54c8c757806eb6820629bc82d90e056394c92", entries["testnet Bridgehub"].Value)
	assert.Equal(t, "Shared Bridge contract address", entries["testnet SharedBridge"].Description)
	assert.Equal(t, "Admin contract address", entries["testnet Admin"].Description)
	assert.Equal(t, "Asset Router contract address", entries["testnet AssetRouter"].Description)
	assert.True(t, caller.closed)
}

// A failing per-id lookup is skipped; its siblings still contribute.
func TestHarvestSkipsFailedChainLookups(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{
		chainIDs: []*big.Int{big.NewInt(1), big.NewInt(2)},
		proxies: map[string]common.Address{
			"2": common.HexToAddress("0x0000000000000000000000000000000000000002"),
		},
		failProxy: map[string]bool{"1": true},
	}
	source := newTestSource(caller, Config{})

	entries, err := source.Harvest(context.Background(), harvest.Candidate{ID: "testnet"})
	require.NoError(t, err)
	assert.NotContains(t, entries, "testnet DiamondProxy - 1 chain_1")
	assert.Contains(t, entries, "testnet DiamondProxy - 2 chain_2")
}

func TestHarvestRegistryFailureIsFetchError(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{failIDs: true}
	source := newTestSource(caller, Config{})

	_, err := source.Harvest(context.Background(), harvest.Candidate{ID: "testnet"})
	require.Error(t, err)
	var fetchErr *harvest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "getAllZKChainChainIDs", fetchErr.Op)
}

func TestHarvestAuxiliaryFailureIsFetchError(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{
		chainIDs:   []*big.Int{},
		failMethod: map[string]bool{"admin": true},
	}
	source := newTestSource(caller, Config{})

	_, err := source.Harvest(context.Background(), harvest.Candidate{ID: "testnet"})
	require.Error(t, err)
	var fetchErr *harvest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "admin", fetchErr.Op)
}

func TestHarvestDialFailureIsFetchError(t *testing.T) {
	t.Parallel()

	dial := func(context.Context, string) (Caller, error) {
		return nil, errors.New("connection refused")
	}
	source := New(dial, Config{Ecosystems: []Ecosystem{testEcosystem()}}, zap.NewNop())

	_, err := source.Harvest(context.Background(), harvest.Candidate{ID: "testnet"})
	require.Error(t, err)
	var fetchErr *harvest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "dial rpc", fetchErr.Op)
}

func TestHarvestUnknownEcosystem(t *testing.T) {
	t.Parallel()

	source := newTestSource(&fakeCaller{}, Config{})
	_, err := source.Harvest(context.Background(), harvest.Candidate{ID: "nope"})
	require.Error(t, err)
	var fetchErr *harvest.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestABICoversAllMethods(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"getAllZKChainChainIDs", "getZKChain", "sharedBridge", "admin", "assetRouter"} {
		_, ok := hubABI.Methods[name]
		assert.True(t, ok, name)
	}
	// Method selectors are distinct four-byte prefixes.
	selectors := make(map[string]struct{})
	for _, method := range hubABI.Methods {
		selectors[string(bytes.Clone(method.ID))] = struct{}{}
	}
	assert.Len(t, selectors, len(hubABI.Methods))
}
