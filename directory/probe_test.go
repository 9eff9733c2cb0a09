package directory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyProbe(t *testing.T) {
	st, err := classifyProbe("abs", nil)
	assert.NoError(t, err)
	assert.Equal(t, probeEntry, st)

	st, err = classifyProbe("", nil)
	assert.NoError(t, err)
	assert.Equal(t, probeEnd, st)

	st, err = classifyProbe("", revertErr{})
	assert.NoError(t, err)
	assert.Equal(t, probeEnd, st)

	st, err = classifyProbe("", errors.New("abi: attempting to unmarshall an empty string while arguments are expected"))
	assert.NoError(t, err)
	assert.Equal(t, probeEnd, st)

	_, err = classifyProbe("", errTransport)
	assert.ErrorIs(t, err, errTransport)

	_, err = classifyProbe("", context.DeadlineExceeded)
	assert.Error(t, err)
}

func TestProbe_StopsAtFirstEmpty(t *testing.T) {
	entries := []string{"a", "b", "c", "", "e"}
	var reads []int64
	read := func(ctx context.Context, index *big.Int) (string, error) {
		reads = append(reads, index.Int64())
		return entries[index.Int64()], nil
	}

	c := newFakeNet().client()
	out, err := c.probe(context.Background(), "test", read, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, []int64{0, 1, 2, 3}, reads)
}

func TestProbe_OnEntryError(t *testing.T) {
	read := func(ctx context.Context, index *big.Int) (string, error) {
		return "x", nil
	}
	boom := errors.New("boom")
	c := newFakeNet().client()
	_, err := c.probe(context.Background(), "test", read, func(ctx context.Context, val string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
