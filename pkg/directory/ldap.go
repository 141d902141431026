package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/config"
)

var (
	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	// ErrUnavailable means the directory could not be reached or queried.
	ErrUnavailable = errors.New("directory: unavailable")
	// ErrAmbiguousUser is returned when a username matches several entries.
	ErrAmbiguousUser = errors.New("directory: username is not unique")
)

type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	StartTLS(cfg *tls.Config) error
	close()
}

type ldapConn struct{ *ldap.Conn }

func (c ldapConn) close() { c.Conn.Close() }

type dialer func(ctx context.Context, cfg config.LDAPConfig) (conn, error)

func dialLDAP(ctx context.Context, cfg config.LDAPConfig) (conn, error) {
	d := &net.Dialer{Timeout: cfg.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		d.Deadline = deadline
	}
	c, err := ldap.DialURL(cfg.URL,
		ldap.DialWithDialer(d),
		ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}), //nolint:gosec
	)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return ldapConn{c}, nil
}

// Client authenticates users against an LDAP directory and reads the
// attributes mirrored into the local user table.
type Client struct {
	cfg    config.LDAPConfig
	dial   dialer
	logger *zap.Logger
}

// NewClient returns a directory client for cfg.
func NewClient(cfg config.LDAPConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, dial: dialLDAP, logger: logger}
}

// Authenticate looks the user up with the service account, then binds as the
// user to verify the password.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*models.DirectoryEntry, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	l, err := c.dial(ctx, c.cfg)
	if err != nil {
		c.logger.Error("ldap dial failed", zap.String("url", c.cfg.URL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer l.close()

	if c.cfg.StartTLS {
		if err := l.StartTLS(&tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify}); err != nil { //nolint:gosec
			return nil, fmt.Errorf("%w: start tls: %v", ErrUnavailable, err)
		}
	}

	if c.cfg.BindDN != "" {
		if err := l.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
			c.logger.Error("ldap service bind failed", zap.String("bind_dn", c.cfg.BindDN), zap.Error(err))
			return nil, fmt.Errorf("%w: service bind: %v", ErrUnavailable, err)
		}
	}

	entry, err := c.find(l, username)
	if err != nil {
		return nil, err
	}

	if err := l.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: user bind: %v", ErrUnavailable, err)
	}

	return entry, nil
}

func (c *Client) find(l conn, username string) (*models.DirectoryEntry, error) {
	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, int(c.cfg.Timeout.Seconds()), false,
		fmt.Sprintf(c.cfg.UserFilter, ldap.EscapeFilter(username)),
		c.attributes(),
		nil,
	)
	res, err := l.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return nil, ErrAmbiguousUser
		}
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	switch len(res.Entries) {
	case 0:
		return nil, ErrInvalidCredentials
	case 1:
		return c.toEntry(res.Entries[0], username), nil
	default:
		return nil, ErrAmbiguousUser
	}
}

func (c *Client) attributes() []string {
	attrs := []string{c.cfg.UsernameAttr, c.cfg.EmailAttr, c.cfg.FirstNameAttr, c.cfg.LastNameAttr, c.cfg.DisplayNameAttr, c.cfg.GroupAttr}
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Client) toEntry(e *ldap.Entry, fallbackUsername string) *models.DirectoryEntry {
	username := e.GetAttributeValue(c.cfg.UsernameAttr)
	if username == "" {
		username = fallbackUsername
	}
	return &models.DirectoryEntry{
		DN:          e.DN,
		Username:    username,
		Email:       e.GetAttributeValue(c.cfg.EmailAttr),
		FirstName:   e.GetAttributeValue(c.cfg.FirstNameAttr),
		LastName:    e.GetAttributeValue(c.cfg.LastNameAttr),
		DisplayName: e.GetAttributeValue(c.cfg.DisplayNameAttr),
		Groups:      GroupNames(e.GetAttributeValues(c.cfg.GroupAttr)),
	}
}

// GroupNames reduces group DNs such as "cn=leitern-admin,ou=groups,dc=x" to
// their leading RDN value. Values that are not DNs are kept as they are.
func GroupNames(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		name := strings.TrimSpace(v)
		if dn, err := ldap.ParseDN(name); err == nil && len(dn.RDNs) > 0 && len(dn.RDNs[0].Attributes) > 0 {
			name = dn.RDNs[0].Attributes[0].Value
		}
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
