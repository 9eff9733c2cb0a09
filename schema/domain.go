package schema

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DomainRecord is the manager contract's view of one name.tld.
// Owner is the zero address when the name was never registered.
type DomainRecord struct {
	Owner      common.Address
	Expiration uint64 // unix seconds
	NftAddress common.Address
	TokenId    *big.Int
}

// Available reports whether the name can be registered at unix time now.
// A record expiring exactly at now is available.
func (r DomainRecord) Available(now int64) bool {
	if r.Owner == (common.Address{}) {
		return true
	}
	return now >= 0 && r.Expiration <= uint64(now)
}

type TldEntry struct {
	Tld      string         `json:"tld"`
	Contract common.Address `json:"contract"`
}

const (
	ActivityRegister = "register"
	ActivityRenew    = "renew"
	ActivityTransfer = "transfer"
	ActivityExpire   = "expire"
)

type ActivityEvent struct {
	ID          string `json:"id"` // txHash + logIndex
	Type        string `json:"type"`
	Domain      string `json:"domain"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	TokenId     string `json:"tokenId"`
	Timestamp   uint64 `json:"timestamp"`
	Tld         string `json:"tld"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Expiration  string `json:"expiration,omitempty"`
}
