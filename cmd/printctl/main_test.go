package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const billJSON = `{
	"bill_id": 1042,
	"bill_reference": "A7",
	"customer_name": "K. Perera",
	"doctor_name": "Dr. Silva",
	"payment_type": "Cash",
	"items": [{"name": "Consultation", "price": "1500"}, {"name": "Injection", "price": "500"}]
}`

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		input   string
		check   func(t *testing.T, out string)
		wantErr string
	}{
		{
			name: "list profiles",
			opts: options{list: true},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "a4-pdf")
				assert.Contains(t, out, "receipt-80mm")
			},
		},
		{
			name:  "bill to pdf",
			opts:  options{kind: "bill", profile: "a4-pdf"},
			input: billJSON,
			check: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, "%PDF-"))
			},
		},
		{
			name:  "bill plan",
			opts:  options{kind: "bill", profile: "lq310-raw", showPlan: true},
			input: billJSON,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Consultation")
				assert.Contains(t, out, "Rs.2000.00")
			},
		},
		{
			name:  "summary to receipt",
			opts:  options{kind: "summary", profile: "receipt-80mm"},
			input: `{"start_date":"2025-03-01","end_date":"2025-03-14","items":[{"service_name":"ECG","quantity":1,"total":800}]}`,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Grand Total: Rs.800.00")
			},
		},
		{
			name:    "unknown kind",
			opts:    options{kind: "invoice"},
			input:   `{}`,
			wantErr: `unknown kind "invoice"`,
		},
		{
			name:    "unknown profile",
			opts:    options{kind: "bill", profile: "laserjet"},
			input:   billJSON,
			wantErr: "laserjet",
		},
		{
			name:    "malformed input",
			opts:    options{kind: "bill"},
			input:   `{"bill_id":`,
			wantErr: "decode bill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			err := run(context.Background(), tt.opts, strings.NewReader(tt.input), &stdout)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, stdout.String())
		})
	}
}

func TestRunWritesFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bill.json")
	require.NoError(t, os.WriteFile(in, []byte(billJSON), 0o644))
	out := filepath.Join(dir, "bill.jsonl")

	err := run(context.Background(), options{kind: "bill", profile: "lq310", input: in, output: out}, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Contains(t, first, "op")
}
