package nbtconv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnbtToJSON(t *testing.T) {
	tests := []struct {
		name    string
		snbt    string
		want    json.RawMessage
		wantErr bool
	}{
		{
			name: "without spaces",
			snbt: `{a:1,b:hello,c:"world"}`,
			want: json.RawMessage(`{"a":1,"b":"hello","c":"world"}`),
		},
		{
			name: "nested snbt kept as string",
			snbt: `{a:1,b:"{c:2,d: {e: 3}}"}`,
			want: json.RawMessage(`{"a":1,"b":"{c:2,d: {e: 3}}"}`),
		},
		{
			name: "plain string is quoted",
			snbt: `hello`,
			want: json.RawMessage(`"hello"`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SnbtToJSON(tt.snbt)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), string(got))
		})
	}
}

func TestJsonToSNBT_RoundTrip(t *testing.T) {
	// Key order of an SNBT compound is not deterministic,
	// so compare after converting back to json.
	for _, in := range []string{
		`{"text":"hi","bold":true}`,
		`{"extra":[{"text":"a"},{"text":"b"}],"text":""}`,
		`{"color":"red","text":"kicked"}`,
	} {
		snbt, err := JsonToSNBT(json.RawMessage(in))
		require.NoError(t, err)

		back, err := SnbtToJSON(snbt)
		require.NoError(t, err)

		var want, got map[string]any
		require.NoError(t, json.Unmarshal([]byte(in), &want))
		require.NoError(t, json.Unmarshal(back, &got))

		// Booleans degrade to snbt bytes on the way through.
		if b, ok := want["bold"]; ok && b == true {
			want["bold"] = float64(1)
		}
		assert.Equal(t, want, got, "input: %s", in)
	}
}

func TestSnbtToBinaryTag(t *testing.T) {
	tag, err := SnbtToBinaryTag(`{text:"hello"}`)
	require.NoError(t, err)

	// The binary tag stringifies back to snbt.
	j, err := SnbtToJSON(tag.String())
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hello"}`, string(j))
}
