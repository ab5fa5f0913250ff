// Package yamlfile reads and writes YAML localization files.
//
// The expected file format is a nested YAML map with string leaf values:
//
//	greeting: Hello %name%
//	nav:
//	  home: Home
//	  about: About
//
// Rails i18n style (locale as the only top-level key) is also supported
// when the caller names the locale:
//
//	it:
//	  greeting: Ciao
//
// The document is kept as a yaml.Node so that writing it back preserves key
// order, comments, quoting style and non-string leaves. Translations are
// applied by merging a tree.Map onto the node tree.
package yamlfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccrisc/yaml-traslator/fsutil"
	"github.com/ccrisc/yaml-traslator/tree"
)

// defaultIndent is used when the source file has no nested mapping to
// measure.
const defaultIndent = 2

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// File is a parsed YAML localization file.
type File struct {
	// node is the document node, used for round-trip writing.
	node *yaml.Node
	// localeKey is set when the file uses Rails i18n style; the entries
	// live one level deeper.
	localeKey string
	// indent is the mapping indentation measured in the source.
	indent int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a YAML localization file. See Parse for
// localeRoot.
func ParseFile(path, localeRoot string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data, localeRoot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses YAML data. When localeRoot is non-empty and the document's
// only top-level key names that locale (case-insensitive, "_" and "-"
// equivalent), the file is treated as Rails i18n style.
func Parse(data []byte, localeRoot string) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	f := &File{node: &doc, indent: defaultIndent}

	// yaml.Unmarshal wraps the document in a DocumentNode.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		f.node = &yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
		return f, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping, got kind %d", root.Kind)
	}

	if localeRoot != "" && len(root.Content) == 2 {
		keyNode, valNode := root.Content[0], root.Content[1]
		if valNode.Kind == yaml.MappingNode && sameLocale(keyNode.Value, localeRoot) {
			f.localeKey = keyNode.Value
		}
	}

	if n := measureIndent(root); n > 0 {
		f.indent = n
	}
	return f, nil
}

func sameLocale(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	}
	return norm(a) == norm(b)
}

// measureIndent returns the column offset of the first nested mapping, or 0.
func measureIndent(node *yaml.Node) int {
	if node.Kind != yaml.MappingNode {
		return 0
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if valNode.Kind != yaml.MappingNode || len(valNode.Content) == 0 || valNode.Style&yaml.FlowStyle != 0 {
			continue
		}
		if d := valNode.Content[0].Column - keyNode.Column; d > 0 {
			return d
		}
	}
	return 0
}

// entriesNode returns the mapping that holds the translatable entries.
func (f *File) entriesNode() *yaml.Node {
	root := f.node.Content[0]
	if f.localeKey != "" {
		return root.Content[1]
	}
	return root
}

// LocaleKey returns the Rails i18n locale root, or "".
func (f *File) LocaleKey() string {
	return f.localeKey
}

// SetLocale renames the Rails i18n locale root. It does nothing for files
// without one.
func (f *File) SetLocale(lang string) {
	if f.localeKey == "" {
		return
	}
	f.node.Content[0].Content[0].Value = lang
	f.localeKey = lang
}

// ---------------------------------------------------------------------------
// Tree conversion
// ---------------------------------------------------------------------------

// Tree converts the document to a tree.Map. String scalars become string
// leaves; every other value is decoded into its Go form (int, bool,
// float64, nil, []any, ...) and kept as an opaque leaf.
func (f *File) Tree() (*tree.Map, error) {
	return toTree(f.entriesNode())
}

func toTree(node *yaml.Node) (*tree.Map, error) {
	m := tree.New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		switch {
		case valNode.Kind == yaml.MappingNode:
			child, err := toTree(valNode)
			if err != nil {
				return nil, err
			}
			m.Put(keyNode.Value, child)
		case isStringScalar(valNode):
			m.Put(keyNode.Value, valNode.Value)
		default:
			var v any
			if err := valNode.Decode(&v); err != nil {
				return nil, fmt.Errorf("decoding %q (line %d): %w", keyNode.Value, valNode.Line, err)
			}
			m.Put(keyNode.Value, v)
		}
	}
	return m, nil
}

// isStringScalar reports whether node is a translatable string. Untagged
// plain scalars resolve through ShortTag, so "42", "true" and "~" are not
// strings while "'42'" is.
func isStringScalar(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str"
}

// Merge writes the string leaves of m into the matching string scalars of
// the document. Paths that do not exist in the document, or that point at
// anything other than a string scalar, are ignored; the document structure
// never changes.
func (f *File) Merge(m *tree.Map) int {
	return mergeNode(f.entriesNode(), m)
}

func mergeNode(node *yaml.Node, m *tree.Map) int {
	n := 0
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		v, ok := m.Value(keyNode.Value)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case *tree.Map:
			if valNode.Kind == yaml.MappingNode {
				n += mergeNode(valNode, val)
			}
		case string:
			if isStringScalar(valNode) {
				valNode.Value = val
				n++
			}
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal serialises the document, preserving structure and scalar styles.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(f.indent)
	if err := enc.Encode(f.node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serialises the document and atomically replaces path.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return fsutil.WriteFileAtomic(path, data, 0644)
}
