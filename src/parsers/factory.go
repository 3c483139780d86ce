package parsers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/parsers/generic"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/parsers/kraken"
)

var ErrUnknownSource = errors.New("unknown import source")

var registry = map[string]func() Parser{
	"generic": func() Parser { return generic.NewParser() },
	"kraken":  func() Parser { return kraken.NewParser() },
}

func GetParser(source string) (Parser, error) {
	newParser, ok := registry[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, fmt.Errorf("%w: no parser available for source %q", ErrUnknownSource, source)
	}
	return newParser(), nil
}

// Sources lists the registered import sources in sorted order.
func Sources() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
