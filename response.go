package soapinvoker

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// Response is a parsed SOAP response body
type Response struct {
	// Document is the whole response envelope
	Document *etree.Document
	// Body is the first element inside soap:Body, usually <MethodResponse>. It is nil
	// when the service answered with an empty body.
	Body *etree.Element
}

// Name returns the local name of the body element
func (r *Response) Name() string {
	if r == nil || r.Body == nil {
		return ""
	}
	return r.Body.Tag
}

// Property returns the text of the first child of the body element with the given local name
func (r *Response) Property(name string) (string, bool) {
	if r == nil || r.Body == nil {
		return "", false
	}
	for _, child := range r.Body.ChildElements() {
		if child.Tag == name {
			return strings.TrimSpace(child.Text()), true
		}
	}
	return "", false
}

// Properties returns the text of every direct child of the body element keyed by local
// name. Repeated names keep the first value.
func (r *Response) Properties() map[string]string {
	props := make(map[string]string)
	if r == nil || r.Body == nil {
		return props
	}
	for _, child := range r.Body.ChildElements() {
		if _, ok := props[child.Tag]; !ok {
			props[child.Tag] = strings.TrimSpace(child.Text())
		}
	}
	return props
}

// parseEnvelope reads a SOAP 1.1 envelope. A fault in the body is returned as *Fault,
// anything unreadable as *ParseError.
func parseEnvelope(data []byte) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Err: err}
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, &ParseError{Err: errors.New("missing Envelope element")}
	}

	body := root.SelectElement("Body")
	if body == nil {
		return nil, &ParseError{Err: errors.New("missing Body element")}
	}

	if fault := body.SelectElement("Fault"); fault != nil {
		return nil, parseFault(fault)
	}

	resp := &Response{Document: doc}
	if children := body.ChildElements(); len(children) > 0 {
		resp.Body = children[0]
	}

	return resp, nil
}

func parseFault(el *etree.Element) *Fault {
	fault := &Fault{}
	if e := el.SelectElement("faultcode"); e != nil {
		fault.Code = strings.TrimSpace(e.Text())
	}
	if e := el.SelectElement("faultstring"); e != nil {
		fault.String = strings.TrimSpace(e.Text())
	}
	if e := el.SelectElement("faultactor"); e != nil {
		fault.Actor = strings.TrimSpace(e.Text())
	}
	if e := el.SelectElement("detail"); e != nil {
		doc := etree.NewDocument()
		for _, child := range e.ChildElements() {
			doc.AddChild(child.Copy())
		}
		detail, _ := doc.WriteToString()
		if detail == "" {
			detail = strings.TrimSpace(e.Text())
		}
		fault.Detail = detail
	}
	return fault
}
