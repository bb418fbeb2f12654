// backend/src/parsers/parsers.go
package parsers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/xstation"
)

// ErrUnknownSource is returned by GetParser for a platform without a parser.
var ErrUnknownSource = errors.New("unknown trade source")

// ClipboardParser turns text copied from a trading platform into a ParsedTrade.
// Implementations never fail; unrecognised input yields a mostly empty trade.
type ClipboardParser interface {
	Parse(text string) *models.ParsedTrade
}

// Factory creates a parser for one source.
type Factory func() ClipboardParser

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		xstation.Source: func() ClipboardParser { return xstation.NewParser() },
	}
)

// Register makes a parser available under source (case-insensitive),
// replacing any parser already registered there. It panics on an empty
// source or a nil factory.
func Register(source string, factory Factory) {
	name := strings.ToLower(strings.TrimSpace(source))
	if name == "" || factory == nil {
		panic("parsers: Register needs a source name and a factory")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// GetParser returns the parser registered for source (case-insensitive).
func GetParser(source string) (ClipboardParser, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(strings.TrimSpace(source))]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownSource, source, strings.Join(Sources(), ", "))
	}
	return factory(), nil
}

// Sources lists the registered source names in sorted order.
func Sources() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()
	sort.Strings(names)
	return names
}
