package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotObject = errors.New("flatten: value is not a JSON object")

// Field é uma coluna achatada: Key usa "." entre níveis de objeto e Raw
// guarda o valor folha em JSON compacto (string, número, bool, null ou array).
type Field struct {
	Key string
	Raw json.RawMessage
}

// Text devolve o valor como célula de tabela: strings sem aspas, null vazio,
// números e bools com o texto original da resposta.
func (f Field) Text() string {
	if len(f.Raw) == 0 || string(f.Raw) == "null" {
		return ""
	}
	if f.Raw[0] == '"' {
		var s string
		if err := json.Unmarshal(f.Raw, &s); err == nil {
			return s
		}
	}
	return string(f.Raw)
}

// Flatten percorre um objeto JSON na ordem do documento e devolve suas folhas.
// Objetos aninhados viram chaves "pai.filho"; arrays ficam como folha.
//
// Um "." ou "\" dentro de uma chave de origem é escapado com "\" (a chave
// "a.b" vira a coluna `a\.b`), então Unflatten distingue a chave literal
// do caminho aninhado a -> b.
func Flatten(data []byte) ([]Field, error) {
	var out []Field
	if err := flattenInto(&out, "", data); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out *[]Field, prefix string, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("flatten %q: %w", prefix, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("flatten %q: %w", prefix, err)
		}
		key, _ := tok.(string)
		name := escapeKey(key)
		if prefix != "" {
			name = prefix + "." + name
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("flatten %q: %w", name, err)
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			if err := flattenInto(out, name, raw); err != nil {
				return err
			}
			continue
		}

		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return fmt.Errorf("flatten %q: %w", name, err)
		}
		*out = append(*out, Field{Key: name, Raw: buf.Bytes()})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("flatten %q: %w", prefix, err)
	}
	return nil
}

// Unflatten reconstrói o objeto aninhado a partir das colunas achatadas.
// Números voltam como json.Number, preservando o texto original.
func Unflatten(fields []Field) (map[string]any, error) {
	root := make(map[string]any)
	for _, f := range fields {
		parts := splitKey(f.Key)
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				if _, exists := node[p]; exists {
					return nil, fmt.Errorf("unflatten %q: %q is not an object", f.Key, p)
				}
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}

		dec := json.NewDecoder(bytes.NewReader(f.Raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("unflatten %q: %w", f.Key, err)
		}
		node[parts[len(parts)-1]] = v
	}
	return root, nil
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`)

func escapeKey(k string) string {
	if !strings.ContainsAny(k, `.\`) {
		return k
	}
	return keyEscaper.Replace(k)
}

// splitKey separa uma coluna achatada nos "." não escapados.
func splitKey(k string) []string {
	if !strings.Contains(k, `\`) {
		return strings.Split(k, ".")
	}
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(k); i++ {
		switch c := k[i]; {
		case c == '\\' && i+1 < len(k):
			i++
			cur.WriteByte(k[i])
		case c == '.':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}
