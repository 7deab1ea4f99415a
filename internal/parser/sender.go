package parser

import (
	"regexp"
	"strings"
)

var (
	angleAddrRegex   = regexp.MustCompile(`<([^>]+)>`)
	bareAddrRegex    = regexp.MustCompile(`([^\s]+@[^\s]+)`)
	displayNameRegex = regexp.MustCompile(`^"?([^"<]+)"?\s*<`)
	domainRegex      = regexp.MustCompile(`@(.+)`)
)

// Sender is the parsed From header of a message
type Sender struct {
	Name    string
	Address string
}

// ParseSender splits a From header into display name and address. The name
// falls back to the address' domain, then to the address itself.
func ParseSender(from string) Sender {
	address := from
	if m := angleAddrRegex.FindStringSubmatch(from); m != nil {
		address = m[1]
	} else if m := bareAddrRegex.FindStringSubmatch(from); m != nil {
		address = m[1]
	}

	var name string
	if m := displayNameRegex.FindStringSubmatch(from); m != nil {
		name = strings.TrimSpace(m[1])
	}
	if name == "" {
		if m := domainRegex.FindStringSubmatch(address); m != nil {
			name = m[1]
		} else {
			name = address
		}
	}

	return Sender{Name: name, Address: address}
}
