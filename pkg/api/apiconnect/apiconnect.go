// Package apiconnect wires the messages in package api to Connect
// handlers and clients. Every service is served with api.Codec.
package apiconnect

import (
	"connectrpc.com/connect"

	"github.com/mmynk/scrtch/pkg/api"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}
