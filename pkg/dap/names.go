package dap

import (
	"sort"
	"strings"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// UniqueNames fails with a bad semantics error naming the first duplicate
// or empty name in names. The check sorts a copy of the names and compares
// neighbours; names are case-sensitive.
func UniqueNames(names []string, container string) error {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for i, n := range sorted {
		if n == "" {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%q has an unnamed member", container).
				WithDetail("container", container)
		}
		if i > 0 && sorted[i-1] == n {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%q has more than one member named %q", container, n).
				WithDetail("container", container).
				WithDetail("name", n)
		}
	}
	return nil
}

// CheckUniqueNames applies UniqueNames to the members of c.
func CheckUniqueNames(c Container) error {
	members := c.Members()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name()
	}
	return UniqueNames(names, c.Name())
}

const hexDigits = "0123456789ABCDEF"

func legalNameByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return strings.IndexByte(`_!~*-"`, b) >= 0
}

// EncodeName escapes every byte of name outside the DAP2 identifier set
// (letters, digits and _!~*-") as %XX.
func EncodeName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if legalNameByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}
	return b.String()
}

// EncodePath encodes each component of a dotted path such as
// "NC_GLOBAL.title" and keeps the separators.
func EncodePath(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		parts[i] = EncodeName(p)
	}
	return strings.Join(parts, ".")
}

// DecodeName reverses EncodeName. Malformed escapes are kept verbatim.
func DecodeName(name string) string {
	if !strings.Contains(name, "%") {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] == '%' && i+2 < len(name) {
			hi, lo := unhex(name[i+1]), unhex(name[i+2])
			if hi >= 0 && lo >= 0 {
				b.WriteByte(byte(hi<<4 | lo))
				i += 2
				continue
			}
		}
		b.WriteByte(name[i])
	}
	return b.String()
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// QuoteString renders s as a DAS string literal, escaping quotes and
// backslashes.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
