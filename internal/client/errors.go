package client

import "errors"

var (
	ErrVendorUnknown        = errors.New("vendor not in registry")
	ErrConnectFailed        = errors.New("connect failed")
	ErrSendFailed           = errors.New("send failed")
	ErrNoAcknowledge        = errors.New("no acknowledge")
	ErrMalformedAcknowledge = errors.New("malformed acknowledge")
)
