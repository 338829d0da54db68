// Package loginparam persists account login parameters as prefixed
// entries in the store's config table, so a configured and a candidate
// parameter set can live side by side (prefixes "configured_" and "").
package loginparam

import (
	"context"
	"fmt"
	"strings"

	"github.com/bpiddubnyi/deltachat-core/internal/store"
)

// Server flag bits, stored in the "server_flags" config entry.
const (
	AuthXOAuth2 = 0x2
	AuthNormal  = 0x4

	IMAPSocketStartTLS = 0x100
	IMAPSocketSSL      = 0x200
	IMAPSocketPlain    = 0x400

	SMTPSocketStartTLS = 0x10000
	SMTPSocketSSL      = 0x20000
	SMTPSocketPlain    = 0x40000
)

// Params is one set of login parameters. Empty strings and zero ports
// mean "not configured".
type Params struct {
	Addr string

	MailServer string
	MailPort   int64
	MailUser   string
	MailPw     string

	SendServer string
	SendPort   int64
	SendUser   string
	SendPw     string

	ServerFlags int64
}

// Read loads the parameter set stored under prefix, replacing p entirely.
func (p *Params) Read(ctx context.Context, s *store.Store, prefix string) {
	*p = Params{
		Addr: s.Config(ctx, prefix+"addr", ""),

		MailServer: s.Config(ctx, prefix+"mail_server", ""),
		MailPort:   s.ConfigInt(ctx, prefix+"mail_port", 0),
		MailUser:   s.Config(ctx, prefix+"mail_user", ""),
		MailPw:     s.Config(ctx, prefix+"mail_pw", ""),

		SendServer: s.Config(ctx, prefix+"send_server", ""),
		SendPort:   s.ConfigInt(ctx, prefix+"send_port", 0),
		SendUser:   s.Config(ctx, prefix+"send_user", ""),
		SendPw:     s.Config(ctx, prefix+"send_pw", ""),

		ServerFlags: s.ConfigInt(ctx, prefix+"server_flags", 0),
	}
}

// Write stores the parameter set under prefix.
func (p *Params) Write(ctx context.Context, s *store.Store, prefix string) error {
	fields := []struct {
		key   string
		value string
	}{
		{"addr", p.Addr},
		{"mail_server", p.MailServer},
		{"mail_port", fmt.Sprintf("%d", p.MailPort)},
		{"mail_user", p.MailUser},
		{"mail_pw", p.MailPw},
		{"send_server", p.SendServer},
		{"send_port", fmt.Sprintf("%d", p.SendPort)},
		{"send_user", p.SendUser},
		{"send_pw", p.SendPw},
		{"server_flags", fmt.Sprintf("%d", p.ServerFlags)},
	}
	for _, f := range fields {
		if err := s.SetConfig(ctx, prefix+f.key, f.value); err != nil {
			return fmt.Errorf("loginparam: write %s%s: %w", prefix, f.key, err)
		}
	}
	return nil
}

// String renders the parameters for logging. Passwords are masked.
func (p *Params) String() string {
	return fmt.Sprintf("%s %s:%s:%s:%d %s:%s:%s:%d %s",
		orUnset(p.Addr),
		orUnset(p.MailUser), mask(p.MailPw), orUnset(p.MailServer), p.MailPort,
		orUnset(p.SendUser), mask(p.SendPw), orUnset(p.SendServer), p.SendPort,
		FlagsString(p.ServerFlags))
}

func orUnset(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func mask(pw string) string {
	if pw == "" {
		return "0"
	}
	return "***"
}

// FlagsString renders server flags readably; unknown bits show as hex.
func FlagsString(flags int64) string {
	names := []struct {
		bit  int64
		name string
	}{
		{AuthXOAuth2, "XOAUTH2"},
		{AuthNormal, "AUTH_NORMAL"},
		{IMAPSocketStartTLS, "IMAP_STARTTLS"},
		{IMAPSocketSSL, "IMAP_SSL"},
		{IMAPSocketPlain, "IMAP_PLAIN"},
		{SMTPSocketStartTLS, "SMTP_STARTTLS"},
		{SMTPSocketSSL, "SMTP_SSL"},
		{SMTPSocketPlain, "SMTP_PLAIN"},
	}

	var parts []string
	rest := flags
	for _, n := range names {
		if flags&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	for bit := 0; bit <= 30; bit++ {
		if rest&(1<<bit) != 0 {
			parts = append(parts, fmt.Sprintf("0x%x", int64(1)<<bit))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}
