// Package chain harvests contract addresses from the bridgehub registry of
// each configured ecosystem via read-only view calls.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zksync-wtf/harvester/internal/harvest"
)

// Ecosystem is one named bridgehub deployment.
type Ecosystem struct {
	Name      string
	RPC       string
	Bridgehub string
}

// DefaultEcosystems lists the production deployments harvested when no
// override is configured.
func DefaultEcosystems() []Ecosystem {
	return []Ecosystem{
		{Name: "gateway stage", RPC: "https://rpc.era-gateway-stage.zksync.dev", Bridgehub: "0x0000000000000000000000000000000000010002"},
		{Name: "gateway testnet", RPC: "https://rpc.era-gateway-testnet.zksync.dev", Bridgehub: "0x0000000000000000000000000000000000010002"},
		{Name: "gateway mainnet", RPC: "https://rpc.era-gateway-mainnet.zksync.dev", Bridgehub: "0x0000000000000000000000000000000000010002"},
		{Name: "stage", RPC: "https://ethereum-sepolia-rpc.publicnode.com", Bridgehub: "0x236D1c3Ff32Bd0Ca26b72Af287E895627c0478cE"},
		{Name: "testnet", RPC: "https://ethereum-sepolia-rpc.publicnode.com", Bridgehub: "0x35A54c8C757806eB6820629bc82d90E056394C92"},
		{Name: "mainnet", RPC: "https://ethereum-rpc.publicnode.com", Bridgehub: "0x303a465B659cBB0ab36eE643eA362c509EEb5213"},
	}
}

// Config selects the ecosystems and the id-to-name display mapping.
type Config struct {
	Ecosystems []Ecosystem
	// Mapping resolves chain ids to display names; unknown ids render
	// with an empty name.
	Mapping  map[string]string
	Prefix   string
	Max      int
	Parallel int
	Timeout  time.Duration
}

// Source implements harvest.Source over bridgehub registries.
type Source struct {
	dial   Dialer
	cfg    Config
	byName map[string]Ecosystem
	logger *zap.Logger
}

// New constructs the chain Source. A nil dialer defaults to ethclient.
func New(dial Dialer, cfg Config, logger *zap.Logger) *Source {
	if dial == nil {
		dial = DialEthclient
	}
	if len(cfg.Ecosystems) == 0 {
		cfg.Ecosystems = DefaultEcosystems()
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Ecosystem, len(cfg.Ecosystems))
	for _, eco := range cfg.Ecosystems {
		byName[eco.Name] = eco
	}
	return &Source{dial: dial, cfg: cfg, byName: byName, logger: logger}
}

// Describe returns the fixed descriptor for bridgehub harvests.
func (s *Source) Describe() string {
	return "bridgehub"
}

// Enumerate returns the configured ecosystems, filtered by name prefix and
// capped at the maximum count.
func (s *Source) Enumerate(_ context.Context) ([]harvest.Candidate, error) {
	var out []harvest.Candidate
	seen := make(map[string]struct{})
	for _, eco := range s.cfg.Ecosystems {
		if !strings.HasPrefix(eco.Name, s.cfg.Prefix) {
			continue
		}
		if _, dup := seen[eco.Name]; dup {
			continue
		}
		seen[eco.Name] = struct{}{}
		out = append(out, harvest.Candidate{
			ID:      eco.Name,
			Group:   eco.Name,
			Locator: eco.RPC,
		})
		if s.cfg.Max > 0 && len(out) >= s.cfg.Max {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no ecosystems with prefix %q: %w", s.cfg.Prefix, harvest.ErrNoCandidates)
	}
	return out, nil
}

// Harvest dials the ecosystem's RPC endpoint and performs the registry view
// calls: all chain ids, one diamond proxy address per id, plus the shared
// bridge, admin, and asset router addresses.
func (s *Source) Harvest(ctx context.Context, c harvest.Candidate) (harvest.Entries, error) {
	eco, ok := s.byName[c.ID]
	if !ok {
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "resolve ecosystem", Err: fmt.Errorf("unknown ecosystem %q", c.ID)}
	}

	client, err := s.dial(ctx, eco.RPC)
	if err != nil {
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "dial rpc", Err: err}
	}
	defer client.Close()

	hubAddr := common.HexToAddress(eco.Bridgehub)

	ids, err := s.chainIDs(ctx, client, hubAddr)
	if err != nil {
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "getAllZKChainChainIDs", Err: err}
	}

	// Resolved addresses land in an index-addressed slice so output never
	// depends on call completion order.
	proxies := make([]*common.Address, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallel)
	for i, id := range ids {
		g.Go(func() error {
			addr, err := s.addressCall(gctx, client, hubAddr, "getZKChain", id)
			if err != nil {
				s.logger.Warn("getZKChain failed",
					zap.String("ecosystem", eco.Name),
					zap.String("chain_id", id.String()),
					zap.Error(err),
				)
				return nil
			}
			proxies[i] = &addr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "getZKChain", Err: err}
	}

	entries := harvest.Entries{}
	for i, id := range ids {
		if proxies[i] == nil {
			continue
		}
		name := s.cfg.Mapping[id.String()]
		if name == "" {
			name = "chain_" + id.String()
		}
		key := fmt.Sprintf("%s DiamondProxy - %s %s", eco.Name, id, name)
		s.put(entries, key, *proxies[i], fmt.Sprintf("Diamond Proxy for %s", id))
	}

	s.put(entries, eco.Name+" Bridgehub", hubAddr, "Bridgehub contract address")
	for _, aux := range []struct {
		method, label, description string
	}{
		{"sharedBridge", "SharedBridge", "Shared Bridge contract address"},
		{"admin", "Admin", "Admin contract address"},
		{"assetRouter", "AssetRouter", "Asset Router contract address"},
	} {
		addr, err := s.addressCall(ctx, client, hubAddr, aux.method)
		if err != nil {
			return nil, &harvest.FetchError{CandidateID: c.ID, Op: aux.method, Err: err}
		}
		s.put(entries, eco.Name+" "+aux.label, addr, aux.description)
	}
	return entries, nil
}

func (s *Source) put(entries harvest.Entries, key string, addr common.Address, description string) {
	value := strings.ToLower(addr.Hex())
	entries[key] = harvest.Entry{
		Key:         key,
		Value:       value,
		URL:         "https://etherscan.io/address/" + value,
		Description: description,
	}
}

func (s *Source) chainIDs(ctx context.Context, client Caller, to common.Address) ([]*big.Int, error) {
	vals, err := s.call(ctx, client, to, "getAllZKChainChainIDs")
	if err != nil {
		return nil, err
	}
	ids, ok := vals[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected return type %T", vals[0])
	}
	return ids, nil
}

func (s *Source) addressCall(ctx context.Context, client Caller, to common.Address, method string, args ...any) (common.Address, error) {
	vals, err := s.call(ctx, client, to, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected return type %T", vals[0])
	}
	return addr, nil
}

func (s *Source) call(ctx context.Context, client Caller, to common.Address, method string, args ...any) ([]any, error) {
	data, err := hubABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	vals, err := hubABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("call %s: empty return", method)
	}
	return vals, nil
}
