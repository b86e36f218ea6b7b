// Package soapinvoker calls SOAP 1.1 services in the background and reports each call
// exactly once, either to a Callback on a chosen delivery context or through a *Call.
//
// A first attempt is sent without SOAPAction. When it fails at the transport level
// (network error, bad status or SOAP fault) the call is retried once with
// namespace+method as SOAPAction. Unreadable responses are not retried.
//
//	inv := soapinvoker.New(soapinvoker.Options{})
//	defer inv.Close()
//
//	inv.Call("http://svc/ep", "urn:ns", "GetUser", map[string]string{"id": "42"}, soapinvoker.CallbackFuncs{
//		Success: func(resp *soapinvoker.Response) { ... },
//		Error:   func(err error) { ... },
//	})
package soapinvoker
