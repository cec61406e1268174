// Package nbtconv converts between JSON, stringified NBT and binary tags.
//
// Chat components travel as JSON below 1.20.3 and as binary tags from
// 1.20.3 on; the proxy converts between the two through SNBT.
package nbtconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Tnze/go-mc/nbt"
	"gopkg.in/yaml.v3"
)

// BinaryTagToJSON converts a binary tag to JSON.
func BinaryTagToJSON(tag *nbt.RawMessage) (json.RawMessage, error) {
	return SnbtToJSON(tag.String())
}

// SnbtToJSON converts stringified NBT to JSON.
// Example: {a:1,b:hello,c:"world",d:true} -> {"a":1,"b":"hello","c":"world","d":true}
func SnbtToJSON(snbt string) (json.RawMessage, error) {
	snbt = strings.TrimSpace(snbt)

	if len(snbt) < 2 || !strings.HasPrefix(snbt, "{") || !strings.HasSuffix(snbt, "}") {
		// Not a compound, just a plain string.
		return json.RawMessage(strconv.Quote(snbt)), nil
	}

	// YAML is a superset of JSON with optional quoting, which makes it
	// a fitting parser for SNBT once we add spaces after separators.
	var m map[string]any
	if err := yaml.Unmarshal([]byte(spacedSNBT(snbt)), &m); err != nil {
		return nil, fmt.Errorf("error unmarshalling snbt as yaml: %w", err)
	}
	j, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("error marshalling to json: %w", err)
	}
	return j, nil
}

// spacedSNBT adds a space after each colon and comma outside of quotes,
// which the yaml parser requires.
func spacedSNBT(snbt string) string {
	var b strings.Builder
	b.Grow(len(snbt) + len(snbt)/4)
	inQuotes := false
	for i := 0; i < len(snbt); i++ {
		switch snbt[i] {
		case '"':
			inQuotes = !inQuotes
		case ':', ',':
			if !inQuotes {
				b.WriteByte(snbt[i])
				b.WriteByte(' ')
				continue
			}
		}
		b.WriteByte(snbt[i])
	}
	return b.String()
}

// JsonToSNBT converts JSON to stringified NBT.
// Booleans become the bytes 1 and 0.
func JsonToSNBT(j json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(j, &m); err != nil {
		return "", fmt.Errorf("error unmarshalling json: %w", err)
	}
	var b strings.Builder
	err := writeValueSNBT(m, &b)
	return b.String(), err
}

func writeValueSNBT(v any, b *strings.Builder) error {
	switch v := v.(type) {
	case map[string]any:
		return writeCompoundSNBT(v, b)
	case []any:
		return writeListSNBT(v, b)
	case string:
		writeStringSNBT(v, b, false)
	case bool:
		if v {
			b.WriteString("1")
		} else {
			b.WriteString("0")
		}
	default:
		fmt.Fprintf(b, "%v", v)
	}
	return nil
}

func writeCompoundSNBT(m map[string]any, b *strings.Builder) error {
	b.WriteString("{")
	sep := ""
	for k, v := range m {
		b.WriteString(sep)
		writeStringSNBT(k, b, true)
		b.WriteString(":")
		if err := writeValueSNBT(v, b); err != nil {
			return err
		}
		sep = ","
	}
	b.WriteString("}")
	return nil
}

func writeListSNBT(s []any, b *strings.Builder) error {
	b.WriteString("[")
	for i, item := range s {
		if i != 0 {
			b.WriteString(",")
		}
		if err := writeValueSNBT(item, b); err != nil {
			return err
		}
	}
	b.WriteString("]")
	return nil
}

var bareStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-.+]+$`)

func writeStringSNBT(s string, b *strings.Builder, isKey bool) {
	if isKey && strings.TrimSpace(s) != "" && bareStringRe.MatchString(s) {
		b.WriteString(s)
		return
	}
	// Quote empty strings and strings containing special characters.
	// strconv.Quote would also escape \n, \t etc. which SNBT keeps literal,
	// so only " is escaped here.
	b.WriteString(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
}

// SnbtToBinaryTag converts stringified NBT to a binary tag.
func SnbtToBinaryTag(snbt string) (nbt.RawMessage, error) {
	buf := new(bytes.Buffer)
	if err := nbt.StringifiedMessage(snbt).MarshalNBT(buf); err != nil {
		return nbt.RawMessage{}, fmt.Errorf("error marshalling snbt to binary: %w", err)
	}

	// Wrap the fields into a nameless compound the network-format
	// decoder can consume.
	rd := io.MultiReader(
		bytes.NewReader([]byte{10}), // TagCompound
		buf,
		bytes.NewReader([]byte{0}), // TagEnd
	)

	dec := nbt.NewDecoder(rd)
	dec.NetworkFormat(true)
	var m nbt.RawMessage
	if _, err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("error decoding binary tag: %w", err)
	}
	return m, nil
}

// JsonToBinaryTag converts JSON to a binary tag.
//
// Type information such as boolean is lost in the conversion, since
// SNBT uses 1 and 0 byte values for booleans which are not
// distinguishable from JSON numbers.
func JsonToBinaryTag(j json.RawMessage) (nbt.RawMessage, error) {
	snbt, err := JsonToSNBT(j)
	if err != nil {
		return nbt.RawMessage{}, err
	}
	return SnbtToBinaryTag(snbt)
}
