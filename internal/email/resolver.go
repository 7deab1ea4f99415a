package email

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const imapsPort = "993"

// Hosted domains whose IMAP endpoint cannot be guessed from the domain
var knownIMAPHosts = map[string]string{
	"gmail.com":      "imap.gmail.com",
	"googlemail.com": "imap.gmail.com",
	"outlook.com":    "outlook.office365.com",
	"hotmail.com":    "outlook.office365.com",
	"live.com":       "outlook.office365.com",
	"yahoo.com":      "imap.mail.yahoo.com",
	"icloud.com":     "imap.mail.me.com",
	"fastmail.com":   "imap.fastmail.com",
}

// ErrInvalidAddress is returned for an account email without a domain
var ErrInvalidAddress = errors.New("invalid email format")

// Resolver maps an account email to an IMAPS endpoint
type Resolver struct {
	probe    func(address string) bool
	lookupMX func(domain string) ([]*net.MX, error)
}

// NewResolver creates a resolver that probes candidate hosts over TCP
func NewResolver() *Resolver {
	return &Resolver{
		probe: func(address string) bool {
			conn, err := net.DialTimeout("tcp", address, 3*time.Second)
			if err != nil {
				return false
			}
			conn.Close()
			return true
		},
		lookupMX: net.LookupMX,
	}
}

// Resolve returns host:port for the account. Google Workspace domains are
// recognized through their MX records.
func (r *Resolver) Resolve(email string) (string, error) {
	domain := domainOf(email)
	if domain == "" {
		return "", ErrInvalidAddress
	}

	if host, ok := knownIMAPHosts[domain]; ok {
		return net.JoinHostPort(host, imapsPort), nil
	}

	if mx, err := r.lookupMX(domain); err == nil && len(mx) > 0 {
		mxHost := strings.ToLower(strings.TrimSuffix(mx[0].Host, "."))
		if strings.HasSuffix(mxHost, ".google.com") || strings.HasSuffix(mxHost, ".googlemail.com") {
			return net.JoinHostPort("imap.gmail.com", imapsPort), nil
		}
	}

	for _, host := range []string{"imap." + domain, "mail." + domain} {
		address := net.JoinHostPort(host, imapsPort)
		if r.probe(address) {
			return address, nil
		}
	}

	return "", fmt.Errorf("could not determine IMAP server for %s", domain)
}

func domainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
