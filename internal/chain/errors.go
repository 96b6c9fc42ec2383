package chain

import "errors"

var (
	ErrUnknownContract = errors.New("chain: unknown contract")
	ErrUnknownKind     = errors.New("chain: unknown contract kind")
	ErrContractExists  = errors.New("chain: contract already exists")
	ErrHookCycle       = errors.New("chain: hook cycle")
	ErrCallDepth       = errors.New("chain: call depth exceeded")
	ErrUnknownMessage  = errors.New("chain: unknown message")
)
