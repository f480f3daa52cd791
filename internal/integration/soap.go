package integration

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
)

const soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	NS      string   `xml:"xmlns:soapenv,attr"`
	Header  *soapHeader
	Body    soapBody
}

type soapHeader struct {
	XMLName xml.Name `xml:"soapenv:Header"`
	Content any
}

type soapBody struct {
	XMLName xml.Name `xml:"soapenv:Body"`
	Content any
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// soapCall posts an envelope carrying header and body to target and
// decodes the reply body into out.
func soapCall(ctx context.Context, client *http.Client, target, action, user, password string, header, body, out any) error {
	payload, err := xml.Marshal(soapEnvelope{NS: soapEnvelopeNS, Header: wrapHeader(header), Body: soapBody{Content: body}})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	if action != "" {
		req.Header.Set("SOAPAction", action)
	}
	if user != "" {
		req.SetBasicAuth(user, password)
	}

	raw, err := do(client, req)
	if err != nil {
		return err
	}

	var reply struct {
		Body struct {
			Fault   *soapFault `xml:"Fault"`
			Content []byte     `xml:",innerxml"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if f := reply.Body.Fault; f != nil {
		return fmt.Errorf("soap fault %s: %s", f.Code, f.String)
	}
	if err := xml.Unmarshal(reply.Body.Content, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func wrapHeader(content any) *soapHeader {
	if content == nil {
		return nil
	}
	return &soapHeader{Content: content}
}
