package directory

import (
	"context"
	"fmt"
	"math/big"
)

// maxProbe bounds an enumeration so a contract that never reverts cannot hang us.
const maxProbe = 1 << 16

type probeStatus int

const (
	probeEntry probeStatus = iota
	probeEnd
)

// classifyProbe turns one indexed read into a tagged outcome. An empty
// value or a no-data revert ends the list; anything else is a real failure.
func classifyProbe(val string, err error) (probeStatus, error) {
	if err != nil {
		if isNoData(err) {
			return probeEnd, nil
		}
		return probeEnd, err
	}
	if val == "" {
		return probeEnd, nil
	}
	return probeEntry, nil
}

type indexedRead func(ctx context.Context, index *big.Int) (string, error)

// probe reads index 0,1,2... until the first empty or reverting read.
// onEntry, if set, runs for every entry before the next probe is issued.
func (c *Client) probe(ctx context.Context, method string, read indexedRead, onEntry func(ctx context.Context, val string) error) ([]string, error) {
	out := make([]string, 0)
	for i := 0; i < maxProbe; i++ {
		index := big.NewInt(int64(i))
		var val string
		err := c.call(ctx, method, func(ctx context.Context) (err error) {
			val, err = read(ctx, index)
			return
		})
		status, err := classifyProbe(val, err)
		if err != nil {
			probeCount.WithLabelValues(method, "error").Inc()
			return nil, fmt.Errorf("probe %s[%d]: %w", method, i, err)
		}
		if status == probeEnd {
			probeCount.WithLabelValues(method, "end").Inc()
			return out, nil
		}
		probeCount.WithLabelValues(method, "entry").Inc()
		if onEntry != nil {
			if err := onEntry(ctx, val); err != nil {
				return nil, err
			}
		}
		out = append(out, val)
	}
	return nil, fmt.Errorf("probe %s: more than %d entries", method, maxProbe)
}
