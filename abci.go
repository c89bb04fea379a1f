package custody

import (
	"fmt"

	"github.com/iov-one/custody/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// DeliverOrError builds the DeliverTx response from the outcome of a
// handler call. A failure is reported with its error code and a log
// prefixed with "cannot deliver tx", debug exposes the full stack.
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		code, log := txErrorInfo("deliver", err, debug)
		return abci.ResponseDeliverTx{Code: code, Log: log}
	}
	return abci.ResponseDeliverTx{Data: result.Data, Log: result.Log}
}

// CheckOrError is DeliverOrError for CheckTx.
func CheckOrError(result *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		code, log := txErrorInfo("check", err, debug)
		return abci.ResponseCheckTx{Code: code, Log: log}
	}
	return abci.ResponseCheckTx{Data: result.Data, Log: result.Log}
}

func txErrorInfo(phase string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, fmt.Sprintf("cannot %s tx: %s", phase, log)
}
