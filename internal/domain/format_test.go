package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"220", true},
		{" 220.50 ", true},
		{"-1", true},
		{".5", true},
		{"0220", true},
		{"1.", false},
		{"1e3", false},
		{"1,000", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNumeric(tt.in))
		})
	}
}

func TestIsHTTPURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://testpayment.cmi.co.ma/fim/est3Dgate", true},
		{"http://localhost:8080/callback", true},
		{"ftp://example.com", false},
		{"/relative/path", false},
		{"https://", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHTTPURL(tt.in))
		})
	}
}
