package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"invoice keyword", "INVOICE #42\nAmount due: $10", "Invoice"},
		{"receipt keyword", "Thank you! Items purchased: 3", "Receipt"},
		{"id document keyword", "Driver License\nState of Ohio", "ID Document"},
		{"contract keyword", "This agreement is made between the parties", "Contract"},
		{"case insensitive", "ToTaL: $50", "Invoice"},
		{"no match", "lorem ipsum dolor sit amet", "Unknown"},
		{"empty text", "", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Invoice outranks Receipt when both keyword sets match.
	assert.Equal(t, "Invoice", Classify("receipt for invoice payment"))
	// Receipt outranks ID Document.
	assert.Equal(t, "Receipt", Classify("receipt shows driver name"))
	// ID Document outranks Contract.
	assert.Equal(t, "ID Document", Classify("license under this contract"))
}
