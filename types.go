package soapinvoker

import (
	"encoding/xml"
	"fmt"
)

const (
	nsEnvelope = "http://schemas.xmlsoap.org/soap/envelope/"
	nsEncoding = "http://schemas.xmlsoap.org/soap/encoding/"
	nsXSI      = "http://www.w3.org/2001/XMLSchema-instance"
	nsXSD      = "http://www.w3.org/2001/XMLSchema"
	nsWsse     = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	nsWsu      = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	nsDsig     = "http://www.w3.org/2000/09/xmldsig#"
	nsExcC14N  = "http://www.w3.org/2001/10/xml-exc-c14n#"
)

type envelope struct {
	XMLName xml.Name     `xml:"v:Envelope"`
	I       string       `xml:"xmlns:i,attr"`
	D       string       `xml:"xmlns:d,attr"`
	C       string       `xml:"xmlns:c,attr"`
	V       string       `xml:"xmlns:v,attr"`
	Header  *header      `xml:"v:Header"`
	Body    *requestBody `xml:"v:Body"`
}

type header struct {
	XMLName  xml.Name        `xml:"v:Header"`
	Security *headerSecurity `xml:"wsse:Security"`
}

type headerSecurity struct {
	XMLName xml.Name `xml:"wsse:Security"`
	Text    string   `xml:",chardata"`
	Wsse    string   `xml:"xmlns:wsse,attr"`

	Signature     *headerSecuritySignature     `xml:"Signature"`
	UsernameToken *headerSecurityUsernameToken `xml:"wsse:UsernameToken"`
}

type headerSecurityUsernameToken struct {
	Text     string                               `xml:",chardata"`
	Username string                               `xml:"wsse:Username"`
	Password *headerSecurityUsernameTokenPassword `xml:"wsse:Password"`
}

type headerSecurityUsernameTokenPassword struct {
	Text string `xml:",chardata"`
	Type string `xml:"Type,attr"`
}

type headerSecuritySignature struct {
	Text           string                             `xml:",chardata"`
	ID             string                             `xml:"Id,attr"`
	Xmlns          string                             `xml:"xmlns,attr"`
	SignedInfo     *headerSecuritySignatureSignedInfo `xml:"SignedInfo"`
	SignatureValue string                             `xml:"SignatureValue"`
	KeyInfo        *headerSecuritySignatureKeyInfo    `xml:"KeyInfo"`
}

type headerSecuritySignatureSignedInfo struct {
	Text                   string     `xml:",chardata"`
	CanonicalizationMethod *algorithm `xml:"CanonicalizationMethod"`
	SignatureMethod        *algorithm `xml:"SignatureMethod"`
	DsReference            *reference `xml:"Reference"`
}

// algorithm covers every dsig element that only carries an Algorithm attribute.
type algorithm struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type reference struct {
	URI          string      `xml:"URI,attr"`
	Transforms   *transforms `xml:"Transforms"`
	DigestMethod *algorithm  `xml:"DigestMethod"`
	DigestValue  string      `xml:"DigestValue"`
}

type transforms struct {
	Transform *algorithm `xml:"Transform"`
}

type headerSecuritySignatureKeyInfo struct {
	ID                     string                        `xml:"Id,attr"`
	SecurityTokenReference keyInfoSecurityTokenReference `xml:"wsse:SecurityTokenReference"`
}

type keyInfoSecurityTokenReference struct {
	X509Data x509Data `xml:"X509Data"`
}

type x509Data struct {
	X509IssuerSerial x509IssuerSerial `xml:"X509IssuerSerial"`
	X509Certificate  string           `xml:"X509Certificate"`
}

type x509IssuerSerial struct {
	X509IssuerName   string `xml:"X509IssuerName"`
	X509SerialNumber string `xml:"X509SerialNumber"`
}

type requestBody struct {
	XMLName xml.Name `xml:"v:Body"`
	ID      string   `xml:"ns1:ID,attr,omitempty"`
	Wsu     string   `xml:"xmlns:ns1,attr,omitempty"`
	Request Request
}

// Request is the SOAP object sent to the service: one method element in a namespace
// carrying a flat list of string properties.
type Request struct {
	// Namespace is the target namespace of the method. It is mandatory.
	Namespace string
	// Method is the name of the remote method. It is mandatory.
	Method string
	// Params are sent as child elements of the method element. May be nil.
	Params map[string]string
	// DotNet encodes the method element with a default namespace, the way .NET
	// services expect it, instead of a prefixed one.
	DotNet bool
}

// Validate checks that the method and every parameter name are XML NCNames, so they
// can be written as element names as they are.
func (r Request) Validate() error {
	if !isNCName(r.Method) {
		return fmt.Errorf("%w: method %q", ErrInvalidName, r.Method)
	}

	var err error
	eachSortedKeyValue(r.Params, func(key, _ string) {
		if err == nil && !isNCName(key) {
			err = fmt.Errorf("%w: parameter %q", ErrInvalidName, key)
		}
	})

	return err
}

// MarshalXML marshals the Request in XML. The keys of Params are always sorted alphabetically.
func (r Request) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if r.DotNet {
		start.Name = xml.Name{Local: r.Method}
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: r.Namespace}}
	} else {
		start.Name = xml.Name{Local: "n0:" + r.Method}
		start.Attr = []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: "o0"},
			{Name: xml.Name{Local: "c:root"}, Value: "1"},
			{Name: xml.Name{Local: "xmlns:n0"}, Value: r.Namespace},
		}
	}

	tokens := []xml.Token{start}

	eachSortedKeyValue(r.Params, func(key, value string) {
		t := xml.StartElement{
			Name: xml.Name{Local: key},
			Attr: []xml.Attr{{Name: xml.Name{Local: "i:type"}, Value: "d:string"}},
		}

		tokens = append(tokens, t, xml.CharData(value), xml.EndElement{Name: t.Name})
	})

	tokens = append(tokens, xml.EndElement{Name: start.Name})

	for _, t := range tokens {
		err := e.EncodeToken(t)
		if err != nil {
			return err
		}
	}

	return e.Flush()
}
