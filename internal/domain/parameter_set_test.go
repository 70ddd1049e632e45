package domain

import (
	"encoding/json"
	"math"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterSet_SetRejectsCaseFoldDuplicates(t *testing.T) {
	p := NewParameterSet()
	require.NoError(t, p.Set("BillToName", "Jane Doe"))

	err := p.Set("billtoname", "John")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, ErrorCodeValidationDuplicateField, GetErrorCode(err))
	assert.Equal(t, "billtoname", GetErrorField(err))

	// the original value survives
	assert.Equal(t, "Jane Doe", p.Get("BillToName"))
	assert.Equal(t, 1, p.Len())
}

func TestParameterSet_SetOverwritesExactName(t *testing.T) {
	p := NewParameterSet()
	require.NoError(t, p.Set("amount", "1.00"))
	require.NoError(t, p.Set("amount", "2.00"))
	assert.Equal(t, "2.00", p.Get("amount"))
	assert.Equal(t, 1, p.Len())
}

func TestParameterSet_SetRejectsEmptyName(t *testing.T) {
	err := NewParameterSet().Set("", "x")
	assert.True(t, IsValidationError(err))
}

func TestParameterSet_DeleteFreesFoldedName(t *testing.T) {
	p := NewParameterSet()
	require.NoError(t, p.Set("HASH", "abc"))
	p.Delete("HASH")

	assert.False(t, p.HasFold("hash"))
	require.NoError(t, p.Set("hash", "def"))
	assert.Equal(t, "def", p.Get("hash"))

	// deleting a different spelling is a no-op
	p.Delete("Hash")
	assert.True(t, p.Has("hash"))
}

func TestParameterSet_NamesSortedByLowercase(t *testing.T) {
	p, err := NewParameterSetFromMap(map[string]string{
		"oid":        "A1",
		"BillToName": "Jane",
		"amount":     "100.00",
		"Currency":   "504",
		"zeta":       "",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "BillToName", "Currency", "oid", "zeta"}, p.Names())
}

func TestParameterSet_CloneIsIndependent(t *testing.T) {
	p, err := NewParameterSetFromMap(map[string]string{"oid": "A1", "hash": "x"})
	require.NoError(t, err)

	c := p.Clone()
	c.Delete("hash")
	require.NoError(t, c.Set("amount", "1"))

	assert.True(t, p.Has("hash"))
	assert.False(t, p.Has("amount"))
	assert.Equal(t, map[string]string{"oid": "A1", "amount": "1"}, c.Map())
}

func TestParameterSet_First(t *testing.T) {
	p, err := NewParameterSetFromMap(map[string]string{"ReturnCode": "05", "transId": "T9"})
	require.NoError(t, err)

	v, ok := p.First("ProcReturnCode", "ReturnCode")
	assert.True(t, ok)
	assert.Equal(t, "05", v)

	v, ok = p.First("TransId", "transId", "oid")
	assert.True(t, ok)
	assert.Equal(t, "T9", v)

	_, ok = p.First("ErrMsg", "errMsg")
	assert.False(t, ok)
}

func TestNewParameterSetFromMap_CaseFoldDuplicate(t *testing.T) {
	_, err := NewParameterSetFromMap(map[string]string{"hash": "a", "HASH": "b"})
	require.Error(t, err)
	assert.Equal(t, ErrorCodeValidationDuplicateField, GetErrorCode(err))
}

func TestNewParameterSetFromValues(t *testing.T) {
	t.Run("single values", func(t *testing.T) {
		p, err := NewParameterSetFromValues(url.Values{
			"oid":    {"A1"},
			"amount": {"100.00"},
			"empty":  {},
		})
		require.NoError(t, err)
		assert.Equal(t, "A1", p.Get("oid"))
		assert.True(t, p.Has("empty"))
		assert.Equal(t, "", p.Get("empty"))
	})

	t.Run("multi-valued field is malformed", func(t *testing.T) {
		_, err := NewParameterSetFromValues(url.Values{"oid": {"A1", "A2"}})
		require.Error(t, err)
		assert.Equal(t, ErrorCodeValidationDuplicateField, GetErrorCode(err))
		assert.Equal(t, "oid", GetErrorField(err))
	})

	t.Run("case-fold duplicate is malformed", func(t *testing.T) {
		_, err := NewParameterSetFromValues(url.Values{"HASH": {"a"}, "hash": {"b"}})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestParameterSet_JSONRoundTripKeepsNumberText(t *testing.T) {
	var p ParameterSet
	require.NoError(t, json.Unmarshal([]byte(`{"amount":100.50,"currency":504,"AutoRedirect":false,"note":null,"oid":"A1"}`), &p))

	assert.Equal(t, "100.50", p.Get("amount"))
	assert.Equal(t, "504", p.Get("currency"))
	assert.Equal(t, "false", p.Get("AutoRedirect"))
	assert.Equal(t, "", p.Get("note"))

	out, err := json.Marshal(&p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"100.50","AutoRedirect":"false","currency":"504","note":"","oid":"A1"}`, string(out))
}

func TestParameterSet_UnmarshalJSONRejectsComposite(t *testing.T) {
	var p ParameterSet
	err := json.Unmarshal([]byte(`{"items":[1,2]}`), &p)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	err = json.Unmarshal([]byte(`{"a":"1","A":"2"}`), &p)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestParameterSet_UnmarshalJSONRejectsRepeatedName(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"exact repeat", `{"oid":"A1","amount":"1.00","oid":"A2"}`, "oid"},
		{"repeat after null", `{"HASH":null,"HASH":"abc="}`, "HASH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ParameterSet
			err := json.Unmarshal([]byte(tt.body), &p)
			require.Error(t, err)
			assert.Equal(t, ErrorCodeValidationDuplicateField, GetErrorCode(err))
			assert.Equal(t, tt.wantField, GetErrorField(err))
		})
	}
}

func TestParameterSet_UnmarshalJSONRequiresObject(t *testing.T) {
	for _, body := range []string{`null`, `["oid"]`, `"oid"`} {
		var p ParameterSet
		err := json.Unmarshal([]byte(body), &p)
		require.Error(t, err, body)
		assert.True(t, IsValidationError(err), body)
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{"nil", nil, "", false},
		{"string", "abc", "abc", false},
		{"bool", true, "true", false},
		{"int", 42, "42", false},
		{"int64", int64(-7), "-7", false},
		{"uint8", uint8(9), "9", false},
		{"float", 100.5, "100.5", false},
		{"float integral", float64(504), "504", false},
		{"json number", json.Number("100.00"), "100.00", false},
		{"decimal", decimal.RequireFromString("12.30"), "12.3", false},
		{"NaN", math.NaN(), "", true},
		{"infinity", math.Inf(1), "", true},
		{"slice", []string{"a"}, "", true},
		{"map", map[string]any{"a": 1}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceValue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParameterSet_NilReceiverReads(t *testing.T) {
	var p *ParameterSet
	assert.Equal(t, "", p.Get("x"))
	assert.False(t, p.Has("x"))
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Names())
	assert.Empty(t, p.Map())
	assert.Equal(t, 0, p.Clone().Len())
}
