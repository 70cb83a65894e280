package importer

import (
	"fmt"
	"strings"

	"github.com/mealtrail/mealtrail/internal/cipher"
	"github.com/mealtrail/mealtrail/internal/model"
)

// Parser converts a source document into RawRows.
type Parser interface {
	Parse(data []byte) ([]model.RawRow, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&EncryptedParser{})
	r.Register(&PayloadParser{})
	return r
}

// Formats understood by DefaultRegistry.
const (
	FormatEncrypted = "encrypted"
	FormatJSON      = "json"
)

// EncryptedParser decrypts a blob and decodes the payload inside it.
type EncryptedParser struct{}

// Format returns the parser name.
func (p *EncryptedParser) Format() string { return FormatEncrypted }

// Parse decrypts data as a blob. Shape problems in the decrypted payload
// are reported the same way as by PayloadParser.
func (p *EncryptedParser) Parse(data []byte) ([]model.RawRow, error) {
	plain, err := cipher.Decrypt(strings.TrimRight(string(data), "\r\n"))
	if err != nil {
		return nil, fmt.Errorf("decrypting blob: %w", err)
	}
	return DecodePayload([]byte(plain))
}

// PayloadParser decodes an already-decrypted JSON payload.
type PayloadParser struct{}

// Format returns the parser name.
func (p *PayloadParser) Format() string { return FormatJSON }

// Parse decodes data as a plaintext payload.
func (p *PayloadParser) Parse(data []byte) ([]model.RawRow, error) {
	return DecodePayload(data)
}
