package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// gmailScope grants SMTP access for XOAUTH2.
const gmailScope = "https://mail.google.com/"

// GmailConfig holds the account and OAuth client credentials used to send as
// Address. All string fields except FromName are required.
type GmailConfig struct {
	Address      string // sending mailbox, e.g. "wallet@example.com"
	FromName     string // display name, e.g. "Wallet"
	ClientID     string
	ClientSecret string
	RefreshToken string

	Host string // default "smtp.gmail.com"
	Port int    // default 587 (STARTTLS)

	// TokenTimeout bounds each access-token refresh. Default 10s.
	TokenTimeout time.Duration
}

// GmailTransport delivers mail through Gmail's SMTP relay authenticated with
// an OAuth2 access token (SASL XOAUTH2). Access tokens are obtained from the
// refresh token and cached until they expire.
type GmailTransport struct {
	address  string
	fromName string
	host     string
	port     int
	tokens   oauth2.TokenSource
}

// NewGmailTransport validates cfg and returns a ready Transport. It does not
// contact Google; the first access token is fetched on the first Deliver.
func NewGmailTransport(cfg GmailConfig) (*GmailTransport, error) {
	return newGmailTransport(cfg, google.Endpoint)
}

func newGmailTransport(cfg GmailConfig, endpoint oauth2.Endpoint) (*GmailTransport, error) {
	var missing []string
	for name, val := range map[string]string{
		"address":       cfg.Address,
		"client id":     cfg.ClientID,
		"client secret": cfg.ClientSecret,
		"refresh token": cfg.RefreshToken,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("email: gmail transport: missing %s", strings.Join(missing, ", "))
	}

	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 10 * time.Second
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{gmailScope},
	}

	// The token source keeps this context for every refresh; the client
	// carries the only deadline a refresh gets.
	refreshCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Timeout: cfg.TokenTimeout,
	})

	return &GmailTransport{
		address:  cfg.Address,
		fromName: cfg.FromName,
		host:     cfg.Host,
		port:     cfg.Port,
		// Config.TokenSource already wraps the source in oauth2.ReuseTokenSource.
		tokens: oc.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: cfg.RefreshToken}),
	}, nil
}

// Deliver implements Transport.
func (t *GmailTransport) Deliver(ctx context.Context, m Message) error {
	tok, err := t.tokens.Token()
	if err != nil {
		return fmt.Errorf("email: gmail: refresh access token: %w", err)
	}

	msg, err := t.buildMessage(m)
	if err != nil {
		return err
	}

	// One client per delivery; the password is the short-lived access token.
	client, err := mail.NewClient(t.host,
		mail.WithPort(t.port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthXOAUTH2),
		mail.WithUsername(t.address),
		mail.WithPassword(tok.AccessToken),
	)
	if err != nil {
		return fmt.Errorf("email: gmail: new smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("email: gmail: send: %w", err)
	}
	return nil
}

func (t *GmailTransport) buildMessage(m Message) (*mail.Msg, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if t.fromName != "" {
		if err := msg.FromFormat(t.fromName, t.address); err != nil {
			return nil, fmt.Errorf("email: from: %w", err)
		}
	} else if err := msg.From(t.address); err != nil {
		return nil, fmt.Errorf("email: from: %w", err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("email: to: %w", err)
	}
	if len(m.Cc) > 0 {
		if err := msg.Cc(m.Cc...); err != nil {
			return nil, fmt.Errorf("email: cc: %w", err)
		}
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return nil, fmt.Errorf("email: reply-to: %w", err)
		}
	}
	msg.Subject(m.Subject)

	switch {
	case m.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, m.HTMLBody)
		if m.TextBody != "" {
			msg.AddAlternativeString(mail.TypeTextPlain, m.TextBody)
		}
	case m.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, m.TextBody)
	default:
		return nil, errors.New("email: message has no body")
	}

	return msg, nil
}
