package cmi

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
)

const formID = "paymentForm"

var (
	inputTemplate = `<input type="hidden" name="{{.Name}}" value="{{.Value}}" />`

	pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Payment Redirect</title>
</head>
<body>
<form method="POST" action="{{.Action}}" id="{{.FormID}}" name="{{.FormID}}">
{{range .Fields}}` + inputTemplate + `
{{end}}<noscript>
<input type="submit" value="Click here to complete payment" />
</noscript>
</form>
<script nonce="{{.Nonce}}">document.getElementById("{{.FormID}}").submit();</script>
</body>
</html>
`))

	hiddenInput = template.Must(template.New("input").Parse(inputTemplate))
)

type formField struct {
	Name  string
	Value string
}

type formPage struct {
	Action string
	FormID string
	Nonce  string
	Fields []formField
}

// formRenderer implements the FormRenderer port
type formRenderer struct {
	gatewayURL string
}

// NewFormRenderer creates a renderer posting to gatewayURL
func NewFormRenderer(gatewayURL string) ports.FormRenderer {
	return &formRenderer{gatewayURL: gatewayURL}
}

func (r *formRenderer) GatewayURL() string {
	return r.gatewayURL
}

// Render returns an HTML page that posts params to the gateway as soon as it
// loads. nonce must match the script-src nonce of the response's CSP.
func (r *formRenderer) Render(params *domain.ParameterSet, nonce string) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, formPage{
		Action: r.gatewayURL,
		FormID: formID,
		Nonce:  nonce,
		Fields: formFields(params),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render payment form: %w", err)
	}
	return buf.Bytes(), nil
}

// Inputs returns one hidden input per field, for merchants who embed the
// fields in their own form
func (r *formRenderer) Inputs(params *domain.ParameterSet) ([]string, error) {
	fields := formFields(params)
	inputs := make([]string, 0, len(fields))
	for _, f := range fields {
		var buf bytes.Buffer
		if err := hiddenInput.Execute(&buf, f); err != nil {
			return nil, fmt.Errorf("failed to render input %q: %w", f.Name, err)
		}
		inputs = append(inputs, buf.String())
	}
	return inputs, nil
}

func formFields(params *domain.ParameterSet) []formField {
	names := params.Names()
	fields := make([]formField, 0, len(names))
	for _, name := range names {
		fields = append(fields, formField{Name: name, Value: params.Get(name)})
	}
	return fields
}

// NewNonce returns a random CSP nonce
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
