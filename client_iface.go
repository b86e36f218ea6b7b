package soapinvoker

import "context"

// Transport performs one SOAP exchange. The Invoker only needs this; replace it in your tests
type Transport interface {
	Query(ctx context.Context, url, soapAction string, r Request) (*Response, error)
}

// ClientIface defines the interface for a SOAP Client. It makes mocking the client easier in your tests
type ClientIface interface {
	Transport
	ListOperations(ctx context.Context, url string) ([]string, error)
	RawQuery(ctx context.Context, url, soapAction string, r Request) ([]byte, error)
}
