package schema

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")

	ErrRpcNotConfigured       = errors.New("rpc_not_configured")
	ErrRpcTimeout             = errors.New("rpc_timeout")
	ErrMissingField           = errors.New("missing_field")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidAddress         = errors.New("invalid_address")
	ErrInvalidYears           = errors.New("invalid_years")
	ErrContractNotInitialized = errors.New("contract_not_initialized")
	ErrReadOnly               = errors.New("no_signer_configured") // writes need a private key
	ErrWriteRejected          = errors.New("write_rejected")
	ErrArchiveDisabled        = errors.New("archive_disabled")
)
