package soapinvoker

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/ma314smith/signedxml"
)

// Client is the SOAP 1.1 transport used by the Invoker. It is safe for concurrent use.
type Client struct {
	opts       ClientOpts
	httpClient *http.Client
	logger     Logger
}

// ClientOpts defines the possible options to pass to a client
type ClientOpts struct {
	// Certificate is the tls certificate. When present the envelope is signed with its
	// private key and the certificate is offered for client authentication.
	Certificate tls.Certificate

	// Username for the UsernameToken as defined in https://www.oasis-open.org/committees/download.php/13392/wss-v1.1-spec-pr-UsernameTokenProfile-01.htm#_Toc104276211
	Username string

	// Password for the UsernameToken as defined in https://www.oasis-open.org/committees/download.php/13392/wss-v1.1-spec-pr-UsernameTokenProfile-01.htm#_Toc104276211
	Password string

	// KeepAlive reuses connections between requests. Off by default, reused connections
	// fail with EOF against some services.
	KeepAlive bool

	// Timeout bounds a single request. Zero leaves it to the transport.
	Timeout time.Duration

	// Validate checks the signature of every signed envelope before sending. Use it only for development
	Validate bool

	// Debug enables the verbose mode which prints output of steps. Use it only for development
	Debug bool

	// Logger receives debug output. Defaults to the standard logger.
	Logger Logger

	// HTTPClient replaces the client built from the options above
	HTTPClient *http.Client
}

func (opts ClientOpts) signing() bool {
	return len(opts.Certificate.Certificate) > 0
}

func (opts ClientOpts) getHTTPClient() *http.Client {
	if opts.HTTPClient != nil {
		return opts.HTTPClient
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = !opts.KeepAlive
	if opts.signing() {
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{
				opts.Certificate,
			},
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}
}

func (opts ClientOpts) getCertInfo() (string, string, error) {
	pCert, err := x509.ParseCertificate(opts.Certificate.Certificate[0])
	if err != nil {
		return "", "", err
	}

	return pCert.Issuer.String(), pCert.SerialNumber.String(), nil
}

// NewClient creates a new Client. This client is supposed to be shared between goroutines
func NewClient(opts ClientOpts) *Client {
	return &Client{
		opts:       opts,
		httpClient: opts.getHTTPClient(),
		logger:     loggerOrDefault(opts.Logger),
	}
}

// buildEnvelope builds the envelope for the request
func (c *Client) buildEnvelope(req Request) (*envelope, error) {
	body := &requestBody{Request: req}
	reqHeader := &header{}

	if c.opts.Username != "" || c.opts.signing() {
		reqHeader.Security = &headerSecurity{Wsse: nsWsse}
	}

	if c.opts.Username != "" {
		reqHeader.Security.UsernameToken = &headerSecurityUsernameToken{
			Username: c.opts.Username,
			Password: &headerSecurityUsernameTokenPassword{
				Type: "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText",
				Text: c.opts.Password,
			},
		}
	}

	if c.opts.signing() {
		body.ID = generateID("id")
		body.Wsu = nsWsu

		certIssuerName, certSerialNumber, err := c.opts.getCertInfo()
		if err != nil {
			return nil, fmt.Errorf("parsing client certificate: %w", err)
		}

		reqHeader.Security.Signature = &headerSecuritySignature{
			ID:    generateID("SIG"),
			Xmlns: nsDsig,
			SignedInfo: &headerSecuritySignatureSignedInfo{
				CanonicalizationMethod: &algorithm{Algorithm: nsExcC14N},
				SignatureMethod:        &algorithm{Algorithm: "http://www.w3.org/2000/09/xmldsig#rsa-sha1"},
				DsReference: &reference{
					URI:          "#" + body.ID,
					DigestMethod: &algorithm{Algorithm: "http://www.w3.org/2000/09/xmldsig#sha1"},
					Transforms:   &transforms{Transform: &algorithm{Algorithm: nsExcC14N}},
				},
			},
			KeyInfo: &headerSecuritySignatureKeyInfo{
				ID: generateID("KI"),
				SecurityTokenReference: keyInfoSecurityTokenReference{
					X509Data: x509Data{
						X509IssuerSerial: x509IssuerSerial{
							X509IssuerName:   certIssuerName,
							X509SerialNumber: certSerialNumber,
						},
						X509Certificate: base64.StdEncoding.EncodeToString(c.opts.Certificate.Certificate[0]),
					},
				},
			},
		}
	}

	return &envelope{
		I:      nsXSI,
		D:      nsXSD,
		C:      nsEncoding,
		V:      nsEnvelope,
		Header: reqHeader,
		Body:   body,
	}, nil
}

// marshalEnvelope serializes the request, signing it when a certificate is configured
func (c *Client) marshalEnvelope(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	env, err := c.buildEnvelope(req)
	if err != nil {
		return "", err
	}

	xmlBytes, err := xml.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %w", err)
	}

	if !c.opts.signing() {
		return xml.Header + string(xmlBytes), nil
	}

	signer, err := signedxml.NewSigner(string(xmlBytes))
	if err != nil {
		return "", fmt.Errorf("preparing signature: %w", err)
	}

	signedXML, err := signer.Sign(c.opts.Certificate.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("signing envelope: %w", err)
	}

	if c.opts.Validate {
		validator, err := signedxml.NewValidator(signedXML)
		if err != nil {
			return "", fmt.Errorf("error validating: %w", err)
		}

		_, err = validator.ValidateReferences()
		if err != nil {
			return "", fmt.Errorf("error validating: %w", err)
		}
	}

	return signedXML, nil
}

// ListOperations lists all supported operations by the service at url
func (c *Client) ListOperations(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"?wsdl", nil)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "wsdl", URL: url, Err: err}
	}

	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &TransportError{Op: "wsdl", URL: url, Err: err}
	}

	if response.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "wsdl", URL: url, StatusCode: response.StatusCode}
	}

	if c.opts.Debug {
		c.logger.Printf("RESPONSE: %s", data)
	}

	doc := etree.NewDocument()
	err = doc.ReadFromBytes(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	result := make([]string, 0)
	ops := doc.FindElements("//wsdl:binding/wsdl:operation")
	for _, op := range ops {
		result = append(result, op.SelectAttrValue("name", ""))
	}

	return result, nil
}

// RawQuery posts the request to url and returns the response bytes. An empty soapAction
// is sent as "". A status outside 2xx is reported as *TransportError together with the
// bytes read, so the caller can look for a fault in them.
func (c *Client) RawQuery(ctx context.Context, url, soapAction string, r Request) ([]byte, error) {
	payload, err := c.marshalEnvelope(r)
	if err != nil {
		return nil, err
	}

	if c.opts.Debug {
		c.logger.Printf("REQUEST: %s", payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		return nil, &TransportError{Op: "call", URL: url, Err: err}
	}

	if soapAction == "" {
		soapAction = `""`
	}
	req.Header.Set("Content-Type", "text/xml;charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)
	req.Header.Set("User-Agent", "soapinvoker")

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "call", URL: url, Err: err}
	}

	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &TransportError{Op: "call", URL: url, Err: err}
	}

	if c.opts.Debug {
		c.logger.Printf("RESPONSE: %s", data)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return data, &TransportError{Op: "call", URL: url, StatusCode: response.StatusCode}
	}

	return data, nil
}

// Query performs the request and parses the response envelope. A SOAP fault is
// returned as *Fault, even when the service sent it with status 500.
func (c *Client) Query(ctx context.Context, url, soapAction string, r Request) (*Response, error) {
	data, err := c.RawQuery(ctx, url, soapAction, r)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusInternalServerError && len(data) > 0 {
			var fault *Fault
			if _, perr := parseEnvelope(data); errors.As(perr, &fault) {
				return nil, fault
			}
		}
		return nil, err
	}

	return parseEnvelope(data)
}

var _ ClientIface = &Client{}
