package validation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/beevik/etree"
	xrv "github.com/mattermost/xml-roundtrip-validator"
)

// DefaultIndent is the number of spaces per nesting level
const DefaultIndent = 2

// dateTimeLayout is an XML Schema dateTime with millisecond precision
const dateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Marshaller encodes a ServiceResponse as a CAS XML fragment.
// It holds only immutable settings; every call builds its own document.
type Marshaller struct {
	indent int
}

// NewMarshaller creates a marshaller indenting by the given number of spaces.
// Non-positive values use DefaultIndent.
func NewMarshaller(indent int) *Marshaller {
	if indent <= 0 {
		indent = DefaultIndent
	}
	return &Marshaller{indent: indent}
}

// Marshal serializes resp without an XML declaration
func (m *Marshaller) Marshal(resp *ServiceResponse) ([]byte, error) {
	if resp == nil || (resp.Success == nil) == (resp.Failure == nil) {
		return nil, fmt.Errorf("%w: response must have exactly one of success or failure", ErrMarshalFailure)
	}

	doc := etree.NewDocument()
	root := doc.CreateElement(casTag("serviceResponse"))
	root.CreateAttr("xmlns:"+NamespacePrefix, Namespace)

	if resp.Success != nil {
		if resp.Success.User == "" {
			return nil, ErrMissingPrincipal
		}
		if err := checkSuccessText(resp.Success); err != nil {
			return nil, err
		}
		writeSuccess(root, resp.Success)
	} else {
		if resp.Failure.Code == "" {
			return nil, fmt.Errorf("%w: failure code is required", ErrInvalidModelData)
		}
		if err := validateText("failure code", string(resp.Failure.Code)); err != nil {
			return nil, err
		}
		if err := validateText("failure description", resp.Failure.Description); err != nil {
			return nil, err
		}
		writeFailure(root, resp.Failure)
	}

	settings := etree.NewIndentSettings()
	settings.Spaces = m.indent
	settings.PreserveLeafWhitespace = true
	settings.SuppressTrailingWhitespace = true
	doc.IndentWithSettings(settings)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalFailure, err)
	}

	if err := xrv.Validate(bytes.NewReader(out)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalFailure, err)
	}

	return out, nil
}

func checkSuccessText(s *AuthenticationSuccess) error {
	if err := validateText("user", s.User); err != nil {
		return err
	}
	if err := validateText("proxyGrantingTicket", s.ProxyGrantingTicket); err != nil {
		return err
	}
	for i, p := range s.Proxies {
		if err := validateText(fmt.Sprintf("proxy[%d]", i), p); err != nil {
			return err
		}
	}
	for _, attr := range s.Attributes.Extensions {
		if err := validateAttribute(attr); err != nil {
			return err
		}
	}
	return nil
}

func writeSuccess(root *etree.Element, s *AuthenticationSuccess) {
	success := root.CreateElement(casTag("authenticationSuccess"))
	success.CreateElement(casTag("user")).SetText(s.User)

	if s.ProxyGrantingTicket != "" {
		success.CreateElement(casTag("proxyGrantingTicket")).SetText(s.ProxyGrantingTicket)
	}

	if len(s.Proxies) > 0 {
		proxies := success.CreateElement(casTag("proxies"))
		for _, proxy := range s.Proxies {
			proxies.CreateElement(casTag("proxy")).SetText(proxy)
		}
	}

	attrs := success.CreateElement(casTag("attributes"))
	attrs.CreateElement(casTag("isFromNewLogin")).SetText(formatBool(s.Attributes.IsFromNewLogin))
	attrs.CreateElement(casTag("authenticationDate")).SetText(formatDateTime(s.Attributes.AuthenticationDate))
	attrs.CreateElement(casTag("longTermAuthenticationRequestTokenUsed")).
		SetText(formatBool(s.Attributes.LongTermAuthenticationRequestTokenUsed))

	for _, ext := range s.Attributes.Extensions {
		for _, value := range ext.Values {
			attrs.CreateElement(casTag(ext.Name)).SetText(value)
		}
	}
}

func writeFailure(root *etree.Element, f *AuthenticationFailure) {
	failure := root.CreateElement(casTag("authenticationFailure"))
	failure.CreateAttr("code", string(f.Code))
	failure.SetText(f.Description)
}

func casTag(local string) string {
	return NamespacePrefix + ":" + local
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}
