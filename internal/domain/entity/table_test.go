package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Table
		wantOK bool
	}{
		{name: "reptiles", input: "reptiles", want: Reptiles, wantOK: true},
		{name: "camel case", input: "environmentLogs", want: EnvironmentLogs, wantOK: true},
		{name: "sql name is not a protocol name", input: "environment_logs", wantOK: false},
		{name: "case sensitive", input: "Reptiles", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTable(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTables(t *testing.T) {
	tables := Tables()
	assert.Len(t, tables, 6)
	assert.Equal(t, Reptiles, tables[0])
}

func TestTable_SQLName(t *testing.T) {
	assert.Equal(t, "environment_logs", EnvironmentLogs.SQLName())
	assert.Equal(t, "feedings", Feedings.SQLName())
}
