package cmi

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormRenderer_Render(t *testing.T) {
	r := NewFormRenderer("https://testpayment.cmi.co.ma/fim/est3Dgate")
	params := paramsOf(t, map[string]string{
		"oid":        "A1",
		"amount":     "100.00",
		"BillToName": `Jane "><script>alert(1)</script>`,
		"hash":       "abc+/=",
	})

	page, err := r.Render(params, "n0nce")
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `action="https://testpayment.cmi.co.ma/fim/est3Dgate"`)
	assert.Contains(t, html, `<input type="hidden" name="oid" value="A1" />`)
	assert.Contains(t, html, `<input type="hidden" name="hash" value="abc&#43;/=" />`)
	assert.Contains(t, html, `<script nonce="n0nce">`)
	assert.Contains(t, html, `document.getElementById("paymentForm").submit();`)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Equal(t, 1, strings.Count(html, "<script"))

	// inputs follow the canonical field order
	amount := strings.Index(html, `name="amount"`)
	billTo := strings.Index(html, `name="BillToName"`)
	hash := strings.Index(html, `name="hash"`)
	oid := strings.Index(html, `name="oid"`)
	assert.True(t, amount < billTo && billTo < hash && hash < oid)
}

func TestFormRenderer_Inputs(t *testing.T) {
	r := NewFormRenderer("https://testpayment.cmi.co.ma/fim/est3Dgate")
	params := paramsOf(t, map[string]string{"oid": "A1", "note": `a<b`})

	inputs, err := r.Inputs(params)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`<input type="hidden" name="note" value="a&lt;b" />`,
		`<input type="hidden" name="oid" value="A1" />`,
	}, inputs)
	assert.Equal(t, "https://testpayment.cmi.co.ma/fim/est3Dgate", r.GatewayURL())
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	b, err := NewNonce()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 16)
	assert.NotEqual(t, a, b)
}
