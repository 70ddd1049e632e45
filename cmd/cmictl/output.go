package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/domain"
)

// HashRow is the result of the hash command
type HashRow struct {
	Hash   string   `json:"hash"`
	Fields []string `json:"fields"`
}

// VerifyRow is the result of the verify command
type VerifyRow struct {
	Status       string `json:"status"`
	Token        string `json:"token"`
	Message      string `json:"message"`
	Reason       string `json:"reason,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Currency     string `json:"currency,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func newVerifyRow(result domain.VerificationResult) VerifyRow {
	row := VerifyRow{
		Status:       string(result.Status),
		Token:        string(result.Token),
		Message:      result.Message,
		Reason:       string(result.RejectReason),
		ErrorCode:    result.ErrorCode,
		ErrorMessage: result.ErrorMessage,
	}
	if result.Order != nil {
		row.OrderID = result.Order.OrderID
		row.Amount = result.Order.Amount.StringFixed(2)
		row.Currency = result.Order.Currency
	}
	return row
}

func printResult(w io.Writer, output string, v interface{}) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return printTable(w, v)
}

func printTable(out io.Writer, v interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	switch data := v.(type) {
	case HashRow:
		fmt.Fprintf(w, "Hash:\t%s\n", data.Hash)
		fmt.Fprintf(w, "Fields:\t%d\n", len(data.Fields))
	case *domain.ParameterSet:
		fmt.Fprintln(w, "FIELD\tVALUE")
		for _, name := range data.Names() {
			value := data.Get(name)
			if name == domain.FieldHash {
				value = cmi.DigestPrefix(value) + "..."
			}
			fmt.Fprintf(w, "%s\t%s\n", name, truncate(value, 60))
		}
	case VerifyRow:
		fmt.Fprintf(w, "Status:\t%s\n", data.Status)
		fmt.Fprintf(w, "Token:\t%s\n", data.Token)
		fmt.Fprintf(w, "Message:\t%s\n", data.Message)
		if data.OrderID != "" {
			fmt.Fprintf(w, "Order:\t%s\n", data.OrderID)
			fmt.Fprintf(w, "Amount:\t%s %s\n", data.Amount, data.Currency)
		}
		if data.ErrorCode != "" {
			fmt.Fprintf(w, "Return code:\t%s\n", data.ErrorCode)
		}
		if data.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:\t%s\n", data.ErrorMessage)
		}
	default:
		return json.NewEncoder(out).Encode(v)
	}
	return w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
