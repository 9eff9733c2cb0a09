package directory

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	hnsCommon "github.com/hotdogs-ns/hns/common"
	"github.com/hotdogs-ns/hns/schema"
	"golang.org/x/sync/singleflight"
)

var log = hnsCommon.NewLog("directory")

const DefaultCallTimeout = schema.DefaultCallTimeoutMs * time.Millisecond

// NameCache remembers tokenId -> domain lookups made while decoding activity.
type NameCache interface {
	GetString(key string) (string, bool)
	SetString(key, val string) error
}

type tldHandle struct {
	entry schema.TldEntry
	ns    NameService
}

// Client is the single point of contact with the on-chain naming system.
// Build one per process and share it; it is safe for concurrent use.
type Client struct {
	manager     Manager
	managerAddr common.Address
	dial        NameServiceDialer
	signer      *bind.TransactOpts
	logs        LogSource
	names       NameCache
	timeout     time.Duration
	now         func() time.Time
	closeFn     func()
	chainId     func(ctx context.Context) (*big.Int, error)

	lock        sync.RWMutex
	tlds        map[string]*tldHandle // key: lower-cased tld
	tldOrder    []schema.TldEntry
	refreshedAt time.Time
	group       singleflight.Group
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSigner enables the write operations.
func WithSigner(opts *bind.TransactOpts) Option {
	return func(c *Client) { c.signer = opts }
}

func WithLogSource(src LogSource) Option {
	return func(c *Client) { c.logs = src }
}

func WithNameCache(nc NameCache) Option {
	return func(c *Client) { c.names = nc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithManagerAddress(addr common.Address) Option {
	return func(c *Client) { c.managerAddr = addr }
}

func NewClient(manager Manager, dial NameServiceDialer, opts ...Option) *Client {
	c := &Client{
		manager: manager,
		dial:    dial,
		timeout: DefaultCallTimeout,
		now:     time.Now,
		tlds:    make(map[string]*tldHandle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type DialConfig struct {
	RpcUrl         string
	ManagerAddress string
	PrivateKey     string // hex, optional; enables writes
	ChainId        int64  // 0: ask the node
	Timeout        time.Duration
}

// Dial connects to the rpc endpoint and binds the manager contract.
func Dial(ctx context.Context, cfg DialConfig, opts ...Option) (*Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("%w: missing rpc url", schema.ErrRpcNotConfigured)
	}
	if !common.IsHexAddress(cfg.ManagerAddress) {
		return nil, fmt.Errorf("%w: invalid manager address %q", schema.ErrRpcNotConfigured, cfg.ManagerAddress)
	}
	rpcCli, err := rpc.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, err
	}
	ethCli := ethclient.NewClient(rpcCli)
	managerAddr := common.HexToAddress(cfg.ManagerAddress)

	base := []Option{
		WithTimeout(cfg.Timeout),
		WithManagerAddress(managerAddr),
		WithLogSource(NewRpcLogSource(rpcCli, ethCli)),
	}
	if cfg.PrivateKey != "" {
		signer, err := newSigner(ctx, ethCli, cfg.PrivateKey, cfg.ChainId)
		if err != nil {
			rpcCli.Close()
			return nil, err
		}
		base = append(base, WithSigner(signer))
	}

	dial := func(addr common.Address) (NameService, error) {
		return NewNameService(addr, ethCli), nil
	}
	c := NewClient(NewManager(managerAddr, ethCli), dial, append(base, opts...)...)
	c.closeFn = rpcCli.Close
	c.chainId = ethCli.ChainID
	if cfg.ChainId != 0 {
		id := big.NewInt(cfg.ChainId)
		c.chainId = func(context.Context) (*big.Int, error) { return id, nil }
	}
	return c, nil
}

func newSigner(ctx context.Context, ethCli *ethclient.Client, privateKey string, chainId int64) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	id := big.NewInt(chainId)
	if chainId == 0 {
		if id, err = ethCli.ChainID(ctx); err != nil {
			return nil, err
		}
	}
	return bind.NewKeyedTransactorWithChainID(key, id)
}

func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

func (c *Client) ManagerAddress() common.Address {
	return c.managerAddr
}

// ChainID asks the node once per call; clients built by NewClient have no chain.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainId == nil {
		return nil, schema.ErrRpcNotConfigured
	}
	var id *big.Int
	err := c.call(ctx, "eth_chainId", func(ctx context.Context) (err error) {
		id, err = c.chainId(ctx)
		return
	})
	return id, err
}

// Signer returns the sending address, or false when the client is read-only.
func (c *Client) Signer() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return c.signer.From, true
}

// call bounds fn with the per-call timeout and records metrics.
func (c *Client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()
	err := fn(cctx)
	metricCall(method, err, time.Since(start).Seconds())
	return wrapRpcErr(method, err)
}

// EnumerateTlds probes registeredTLDs from index 0 and binds every TLD's
// name-service contract. Concurrent callers share one enumeration.
func (c *Client) EnumerateTlds(ctx context.Context) ([]schema.TldEntry, error) {
	res, err, _ := c.group.Do("tlds", func() (interface{}, error) {
		return c.enumerateTlds(ctx)
	})
	if err != nil {
		return nil, err
	}
	entries := res.([]schema.TldEntry)
	out := make([]schema.TldEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (c *Client) enumerateTlds(ctx context.Context) ([]schema.TldEntry, error) {
	c.lock.RLock()
	prev := c.tlds
	c.lock.RUnlock()

	entries := make([]schema.TldEntry, 0)
	handles := make(map[string]*tldHandle)
	_, err := c.probe(ctx, "registeredTLDs", c.manager.RegisteredTLDs, func(ctx context.Context, tld string) error {
		var addr common.Address
		err := c.call(ctx, "tldContracts", func(ctx context.Context) (err error) {
			addr, err = c.manager.TldContracts(ctx, tld)
			return
		})
		if err != nil {
			return err
		}
		key := strings.ToLower(tld)
		entry := schema.TldEntry{Tld: tld, Contract: addr}
		if h, ok := prev[key]; ok && h.entry.Contract == addr {
			handles[key] = h
		} else {
			ns, err := c.dial(addr)
			if err != nil {
				return fmt.Errorf("bind name service %s at %s: %w", tld, addr.Hex(), err)
			}
			handles[key] = &tldHandle{entry: entry, ns: ns}
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	c.tlds = handles
	c.tldOrder = entries
	c.refreshedAt = c.now()
	c.lock.Unlock()
	return entries, nil
}

// ListTlds is the soft form of EnumerateTlds: any failure yields an empty list.
func (c *Client) ListTlds(ctx context.Context) []schema.TldEntry {
	entries, err := c.EnumerateTlds(ctx)
	if err != nil {
		log.Error("enumerate tlds failed", "err", err)
		return []schema.TldEntry{}
	}
	return entries
}

// CachedTlds returns the last enumeration and when it completed.
func (c *Client) CachedTlds() ([]schema.TldEntry, time.Time) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]schema.TldEntry, len(c.tldOrder))
	copy(out, c.tldOrder)
	return out, c.refreshedAt
}

// TldContract returns the cached name-service address of tld.
func (c *Client) TldContract(tld string) (common.Address, bool) {
	h, err := c.handle(tld)
	if err != nil {
		return common.Address{}, false
	}
	return h.entry.Contract, true
}

func (c *Client) handle(tld string) (*tldHandle, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	h, ok := c.tlds[strings.ToLower(tld)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrContractNotInitialized, tld)
	}
	return h, nil
}

// Resolve looks up name.tld case-insensitively. A nil record means not-found;
// the error carries the cause.
func (c *Client) Resolve(ctx context.Context, name, tld string) (*schema.DomainRecord, error) {
	if name == "" || tld == "" {
		return nil, fmt.Errorf("%w: name and tld are required", schema.ErrMissingField)
	}
	var rec schema.DomainRecord
	err := c.call(ctx, "resolve", func(ctx context.Context) (err error) {
		rec, err = c.manager.Resolve(ctx, strings.ToLower(name), strings.ToLower(tld))
		return
	})
	if err != nil {
		log.Debug("resolve failed", "name", name, "tld", tld, "err", err)
		return nil, err
	}
	if rec.TokenId == nil {
		rec.TokenId = new(big.Int)
	}
	return &rec, nil
}

// IsAvailable applies the owner-zero-or-expired rule at the client's clock.
func (c *Client) IsAvailable(rec *schema.DomainRecord) bool {
	if rec == nil {
		return false
	}
	return rec.Available(c.now().Unix())
}

// ReverseLookup returns "" when addr has no primary name yet.
func (c *Client) ReverseLookup(ctx context.Context, addr common.Address) (string, error) {
	return c.readOptionalString(ctx, "reverseLookup", func(ctx context.Context) (string, error) {
		return c.manager.ReverseLookup(ctx, addr)
	})
}

// MainDomain returns the primary domain addr chose, or "".
func (c *Client) MainDomain(ctx context.Context, addr common.Address) (string, error) {
	return c.readOptionalString(ctx, "mainDomain", func(ctx context.Context) (string, error) {
		return c.manager.MainDomain(ctx, addr)
	})
}

func (c *Client) readOptionalString(ctx context.Context, method string, read func(ctx context.Context) (string, error)) (string, error) {
	var val string
	err := c.call(ctx, method, func(ctx context.Context) (err error) {
		val, err = read(ctx)
		return
	})
	if err != nil {
		if isNoData(err) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

// ListOwnedDomains returns the "name.tld" entries of addr in on-chain order.
func (c *Client) ListOwnedDomains(ctx context.Context, addr common.Address) ([]string, error) {
	return c.probe(ctx, "addressToDomains", func(ctx context.Context, index *big.Int) (string, error) {
		return c.manager.AddressToDomains(ctx, addr, index)
	}, nil)
}

func (c *Client) GetDomainExpiration(ctx context.Context, name, tld string) (uint64, error) {
	h, err := c.handle(tld)
	if err != nil {
		return 0, err
	}
	var exp *big.Int
	err = c.call(ctx, "getDomainExpiration", func(ctx context.Context) (err error) {
		exp, err = h.ns.GetDomainExpiration(ctx, strings.ToLower(name))
		return
	})
	if err != nil {
		return 0, err
	}
	return clampUint64(exp), nil
}

func (c *Client) transactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	if c.signer == nil {
		return nil, schema.ErrReadOnly
	}
	opts := *c.signer
	opts.Context = ctx
	opts.Value = value
	return &opts, nil
}

type writeFn func(opts *bind.TransactOpts) (*types.Transaction, error)

// send submits one write and returns its hash without waiting for inclusion.
func (c *Client) send(ctx context.Context, method string, value *big.Int, fn writeFn) (common.Hash, error) {
	var tx *types.Transaction
	err := c.call(ctx, method, func(ctx context.Context) error {
		opts, err := c.transactOpts(ctx, value)
		if err != nil {
			return err
		}
		tx, err = fn(opts)
		return err
	})
	if err != nil {
		if errors.Is(err, schema.ErrReadOnly) {
			return common.Hash{}, schema.ErrReadOnly
		}
		if isNoData(err) {
			if value != nil && value.Sign() > 0 {
				return common.Hash{}, fmt.Errorf("%w: %s with %s ETH: %v", schema.ErrWriteRejected, method, FormatEther(value), err)
			}
			return common.Hash{}, fmt.Errorf("%w: %s: %v", schema.ErrWriteRejected, method, err)
		}
		return common.Hash{}, err
	}
	log.Info("tx submitted", "method", method, "hash", tx.Hash().Hex())
	return tx.Hash(), nil
}

// Register pays DomainPrice(name, years) to the TLD contract. The TLD must
// have been seen by EnumerateTlds first.
func (c *Client) Register(ctx context.Context, name, tld string, years int) (common.Hash, error) {
	return c.paidWrite(ctx, "register", name, tld, years)
}

func (c *Client) Renew(ctx context.Context, name, tld string, years int) (common.Hash, error) {
	return c.paidWrite(ctx, "renew", name, tld, years)
}

func (c *Client) paidWrite(ctx context.Context, method, name, tld string, years int) (common.Hash, error) {
	if years < 1 {
		return common.Hash{}, fmt.Errorf("%w: %d", schema.ErrInvalidYears, years)
	}
	h, err := c.handle(tld)
	if err != nil {
		return common.Hash{}, err
	}
	name = strings.ToLower(name)
	price := DomainPrice(name, years)
	return c.send(ctx, method, price, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		if method == "renew" {
			return h.ns.Renew(opts, name, big.NewInt(int64(years)))
		}
		return h.ns.Register(opts, name, big.NewInt(int64(years)))
	})
}

func (c *Client) TransferDomain(ctx context.Context, name, tld string, to common.Address) (common.Hash, error) {
	if to == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: transfer to zero address", schema.ErrInvalidAddress)
	}
	h, err := c.handle(tld)
	if err != nil {
		return common.Hash{}, err
	}
	return c.send(ctx, "transferDomain", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return h.ns.TransferDomain(opts, strings.ToLower(name), to)
	})
}

// SetPrimaryDomain makes domain ("name.tld") the reverse-lookup target of the signer.
func (c *Client) SetPrimaryDomain(ctx context.Context, domain string) (common.Hash, error) {
	if domain == "" {
		return common.Hash{}, fmt.Errorf("%w: domain", schema.ErrMissingField)
	}
	return c.send(ctx, "setMainDomain", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.manager.SetMainDomain(opts, strings.ToLower(domain))
	})
}

// sortEventsDesc orders newest first; ties keep their input order.
func sortEventsDesc(events []schema.ActivityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
}

// SortEvents is sortEventsDesc for callers merging several TLDs.
func SortEvents(events []schema.ActivityEvent) {
	sortEventsDesc(events)
}
