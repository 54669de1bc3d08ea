package translator

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a simulation code.
type Code string

const (
	Astra    Code = "astra"
	GPT      Code = "gpt"
	Elegant  Code = "elegant"
	CSRTrack Code = "csrtrack"
	Ocelot   Code = "ocelot"
	Xsuite   Code = "xsuite"
	WakeT    Code = "wake_t"
	Genesis  Code = "genesis"
	Opal     Code = "opal"
)

// Codes lists the built-in codes.
func Codes() []Code {
	return []Code{Astra, GPT, Elegant, CSRTrack, Ocelot, Xsuite, WakeT, Genesis, Opal}
}

// ErrUnknownCode is returned when a code name cannot be resolved.
var ErrUnknownCode = errors.New("unknown simulation code")

// ParseCode resolves a code name case-insensitively. Separators are ignored,
// so "wake-t", "wakeT" and "Wake_T" are all Wake-T.
func ParseCode(name string) (Code, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	for _, c := range Codes() {
		if strings.ReplaceAll(string(c), "_", "") == key {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCode, name)
}

// Extension is the file suffix conventionally used for the code's decks.
func (c Code) Extension() string {
	switch c {
	case Astra:
		return ".in"
	case GPT:
		return ".in"
	case Elegant:
		return ".lte"
	case CSRTrack:
		return ".in"
	case Ocelot, WakeT:
		return ".py"
	case Xsuite:
		return ".json"
	case Genesis:
		return ".lat"
	case Opal:
		return ".in"
	default:
		return ".txt"
	}
}

// UnsupportedError is returned when a code needs an explicit representation
// of an element it cannot render.
type UnsupportedError struct {
	Code    Code
	Type    string
	Element string
	Reason  string
}

func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("%s: %s %s is not supported", e.Code, e.Type, e.Element)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
