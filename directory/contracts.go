package directory

import (
	"context"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hotdogs-ns/hns/schema"
)

const managerAbiJson = `[
{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"string","name":"tld","type":"string"}],"name":"resolve","outputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"uint256","name":"expiration","type":"uint256"},{"internalType":"address","name":"nftAddress","type":"address"},{"internalType":"uint256","name":"tokenId","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"addr","type":"address"}],"name":"reverseLookup","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"","type":"address"},{"internalType":"uint256","name":"","type":"uint256"}],"name":"addressToDomains","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"mainDomain","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"registeredTLDs","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"string","name":"","type":"string"}],"name":"tldContracts","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"string","name":"domain","type":"string"}],"name":"setMainDomain","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const nameServiceAbiJson = `[
{"inputs":[{"internalType":"string","name":"name","type":"string"}],"name":"getDomainExpiration","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"tokenToDomain","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"uint256","name":"numYears","type":"uint256"}],"name":"register","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"uint256","name":"numYears","type":"uint256"}],"name":"renew","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"address","name":"to","type":"address"}],"name":"transferDomain","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"},{"indexed":true,"internalType":"address","name":"owner","type":"address"},{"indexed":false,"internalType":"uint256","name":"expiration","type":"uint256"}],"name":"DomainRegistered","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"},{"indexed":true,"internalType":"address","name":"owner","type":"address"},{"indexed":false,"internalType":"uint256","name":"newExpiration","type":"uint256"}],"name":"DomainRenewed","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"},{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":true,"internalType":"address","name":"to","type":"address"}],"name":"DomainTransferred","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"},{"indexed":true,"internalType":"address","name":"previousOwner","type":"address"}],"name":"DomainExpired","type":"event"}
]`

var (
	managerAbi     = mustParseAbi(managerAbiJson)
	nameServiceAbi = mustParseAbi(nameServiceAbiJson)
)

func mustParseAbi(js string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(js))
	if err != nil {
		panic(err)
	}
	return parsed
}

// clampUint64 maps a uint256 to uint64, saturating at math.MaxUint64 so a
// far-future expiration never wraps into the past.
func clampUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

// Manager is the subset of the HNS manager contract this package calls.
type Manager interface {
	Resolve(ctx context.Context, name, tld string) (schema.DomainRecord, error)
	ReverseLookup(ctx context.Context, owner common.Address) (string, error)
	AddressToDomains(ctx context.Context, owner common.Address, index *big.Int) (string, error)
	MainDomain(ctx context.Context, owner common.Address) (string, error)
	RegisteredTLDs(ctx context.Context, index *big.Int) (string, error)
	TldContracts(ctx context.Context, tld string) (common.Address, error)
	SetMainDomain(opts *bind.TransactOpts, domain string) (*types.Transaction, error)
}

// NameService is the subset of a per-TLD name-service contract this package calls.
type NameService interface {
	GetDomainExpiration(ctx context.Context, name string) (*big.Int, error)
	TokenToDomain(ctx context.Context, tokenId *big.Int) (string, error)
	Register(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error)
	Renew(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error)
	TransferDomain(opts *bind.TransactOpts, name string, to common.Address) (*types.Transaction, error)
}

// NameServiceDialer binds the name-service contract deployed at addr.
type NameServiceDialer func(addr common.Address) (NameService, error)

type boundManager struct {
	contract *bind.BoundContract
}

// NewManager binds the manager contract at addr to backend.
func NewManager(addr common.Address, backend bind.ContractBackend) Manager {
	return &boundManager{contract: bind.NewBoundContract(addr, managerAbi, backend, backend, backend)}
}

func (m *boundManager) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := m.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...)
	return out, err
}

func (m *boundManager) callString(ctx context.Context, method string, params ...interface{}) (string, error) {
	out, err := m.call(ctx, method, params...)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (m *boundManager) Resolve(ctx context.Context, name, tld string) (schema.DomainRecord, error) {
	out, err := m.call(ctx, "resolve", name, tld)
	if err != nil {
		return schema.DomainRecord{}, err
	}
	expiration := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	return schema.DomainRecord{
		Owner:      *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Expiration: clampUint64(expiration),
		NftAddress: *abi.ConvertType(out[2], new(common.Address)).(*common.Address),
		TokenId:    *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

func (m *boundManager) ReverseLookup(ctx context.Context, owner common.Address) (string, error) {
	return m.callString(ctx, "reverseLookup", owner)
}

func (m *boundManager) AddressToDomains(ctx context.Context, owner common.Address, index *big.Int) (string, error) {
	return m.callString(ctx, "addressToDomains", owner, index)
}

func (m *boundManager) MainDomain(ctx context.Context, owner common.Address) (string, error) {
	return m.callString(ctx, "mainDomain", owner)
}

func (m *boundManager) RegisteredTLDs(ctx context.Context, index *big.Int) (string, error) {
	return m.callString(ctx, "registeredTLDs", index)
}

func (m *boundManager) TldContracts(ctx context.Context, tld string) (common.Address, error) {
	out, err := m.call(ctx, "tldContracts", tld)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (m *boundManager) SetMainDomain(opts *bind.TransactOpts, domain string) (*types.Transaction, error) {
	return m.contract.Transact(opts, "setMainDomain", domain)
}

type boundNameService struct {
	contract *bind.BoundContract
}

// NewNameService binds a name-service contract at addr to backend.
func NewNameService(addr common.Address, backend bind.ContractBackend) NameService {
	return &boundNameService{contract: bind.NewBoundContract(addr, nameServiceAbi, backend, backend, backend)}
}

func (n *boundNameService) GetDomainExpiration(ctx context.Context, name string) (*big.Int, error) {
	var out []interface{}
	if err := n.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getDomainExpiration", name); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (n *boundNameService) TokenToDomain(ctx context.Context, tokenId *big.Int) (string, error) {
	var out []interface{}
	if err := n.contract.Call(&bind.CallOpts{Context: ctx}, &out, "tokenToDomain", tokenId); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (n *boundNameService) Register(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error) {
	return n.contract.Transact(opts, "register", name, years)
}

func (n *boundNameService) Renew(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error) {
	return n.contract.Transact(opts, "renew", name, years)
}

func (n *boundNameService) TransferDomain(opts *bind.TransactOpts, name string, to common.Address) (*types.Transaction, error) {
	return n.contract.Transact(opts, "transferDomain", name, to)
}
