package sdk

import (
	"context"
	"math/big"

	"github.com/hotdogs-ns/hns/directory"
)

// SDK reads from the chain directly when a directory client is available and
// falls back to the hns service otherwise.
type SDK struct {
	Cli *HnsCli
	Dir *directory.Client // optional
}

func NewSDK(hnsUrl string, dir *directory.Client) *SDK {
	return &SDK{
		Cli: New(hnsUrl),
		Dir: dir,
	}
}

// ListTlds returns the tld names in on-chain order from whichever path is available.
func (s *SDK) ListTlds(ctx context.Context) []string {
	if s.Dir == nil {
		return s.Cli.ListTlds()
	}
	entries := s.Dir.ListTlds(ctx)
	tlds := make([]string, 0, len(entries))
	for _, e := range entries {
		tlds = append(tlds, e.Tld)
	}
	return tlds
}

// Quote prices a registration locally; no request is made.
func (s *SDK) Quote(name string, years int) (wei *big.Int, ether string) {
	wei = directory.DomainPrice(name, years)
	return wei, directory.FormatEther(wei)
}
