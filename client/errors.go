package client

import "github.com/aashishbishow/quicserve/rpcerror"

func newRPCFailedError(msg string) error {
	return rpcerror.New(rpcerror.KindRPCFailed, "%s", msg)
}

func connectionClosedError() error {
	return rpcerror.New(rpcerror.KindConnectionClosed, "connection closed")
}

func timeoutError() error {
	return rpcerror.New(rpcerror.KindTimeout, "call timed out")
}
