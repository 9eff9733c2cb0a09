package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hotdogs-ns/hns/schema"
)

// revert code used by geth style nodes for eth_call / eth_estimateGas
const revertErrorCode = 3

var noDataMessages = []string{
	"execution reverted",
	"attempting to unmarshall an empty string",
	"attempting to unmarshal an empty string",
}

// isNoData reports whether err means the contract answered "nothing here":
// a revert (out of range index, unknown name) or an empty return value.
// Transport failures and timeouts are not no-data.
func isNoData(err error) bool {
	if err == nil || isTimeout(err) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range noDataMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, schema.ErrRpcTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// wrapRpcErr tags timeouts with schema.ErrRpcTimeout so callers can tell them apart.
func wrapRpcErr(method string, err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) && !errors.Is(err, schema.ErrRpcTimeout) {
		return fmt.Errorf("%s: %w: %v", method, schema.ErrRpcTimeout, err)
	}
	return fmt.Errorf("%s: %w", method, err)
}

// IsTimeout is exported for the http layer.
func IsTimeout(err error) bool {
	return isTimeout(err)
}
