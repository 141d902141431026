package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/pkg/config"
)

type fakeConn struct {
	binds     [][2]string
	bindErr   map[string]error
	entries   []*ldap.Entry
	searchErr error
	lastReq   *ldap.SearchRequest
	closed    bool
	startTLS  bool
}

func (f *fakeConn) Bind(username, password string) error {
	f.binds = append(f.binds, [2]string{username, password})
	return f.bindErr[username]
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.lastReq = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeConn) StartTLS(*tls.Config) error {
	f.startTLS = true
	return nil
}

func (f *fakeConn) close() { f.closed = true }

func testConfig() config.LDAPConfig {
	return config.LDAPConfig{
		URL:             "ldap://test",
		BindDN:          "cn=svc,dc=example,dc=org",
		BindPassword:    "svc-pass",
		BaseDN:          "dc=example,dc=org",
		UserFilter:      "(&(objectClass=person)(uid=%s))",
		UsernameAttr:    "uid",
		EmailAttr:       "mail",
		FirstNameAttr:   "givenName",
		LastNameAttr:    "sn",
		DisplayNameAttr: "displayName",
		GroupAttr:       "memberOf",
	}
}

func newTestClient(fc *fakeConn) *Client {
	c := NewClient(testConfig(), zap.NewNop())
	c.dial = func(context.Context, config.LDAPConfig) (conn, error) { return fc, nil }
	return c
}

func maxEntry() *ldap.Entry {
	return ldap.NewEntry("uid=mmuster,ou=people,dc=example,dc=org", map[string][]string{
		"uid":         {"mmuster"},
		"mail":        {"max@example.org"},
		"givenName":   {"Max"},
		"sn":          {"Mustermann"},
		"displayName": {"Max Mustermann"},
		"memberOf":    {"cn=leitern-pruefer,ou=groups,dc=example,dc=org", "cn=leitern-pruefer,ou=groups,dc=example,dc=org", "staff"},
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	fc := &fakeConn{entries: []*ldap.Entry{maxEntry()}}
	entry, err := newTestClient(fc).Authenticate(context.Background(), " mmuster ", "secret")
	require.NoError(t, err)

	assert.Equal(t, "mmuster", entry.Username)
	assert.Equal(t, "max@example.org", entry.Email)
	assert.Equal(t, "Max", entry.FirstName)
	assert.Equal(t, "uid=mmuster,ou=people,dc=example,dc=org", entry.DN)
	assert.Equal(t, []string{"leitern-pruefer", "staff"}, entry.Groups)

	require.Len(t, fc.binds, 2)
	assert.Equal(t, [2]string{"cn=svc,dc=example,dc=org", "svc-pass"}, fc.binds[0])
	assert.Equal(t, [2]string{entry.DN, "secret"}, fc.binds[1])
	assert.Equal(t, "(&(objectClass=person)(uid=mmuster))", fc.lastReq.Filter)
	assert.True(t, fc.closed)
}

func TestAuthenticateEscapesFilter(t *testing.T) {
	fc := &fakeConn{}
	_, err := newTestClient(fc).Authenticate(context.Background(), "a*)(uid=*", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, `(&(objectClass=person)(uid=a\2a\29\28uid=\2a))`, fc.lastReq.Filter)
}

func TestAuthenticateRejectsBlankInput(t *testing.T) {
	fc := &fakeConn{}
	c := newTestClient(fc)

	_, err := c.Authenticate(context.Background(), "mmuster", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = c.Authenticate(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, fc.binds)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	fc := &fakeConn{
		entries: []*ldap.Entry{maxEntry()},
		bindErr: map[string]error{
			"uid=mmuster,ou=people,dc=example,dc=org": ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password")),
		},
	}
	_, err := newTestClient(fc).Authenticate(context.Background(), "mmuster", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateAmbiguousUser(t *testing.T) {
	fc := &fakeConn{entries: []*ldap.Entry{maxEntry(), maxEntry()}}
	_, err := newTestClient(fc).Authenticate(context.Background(), "mmuster", "pw")
	assert.ErrorIs(t, err, ErrAmbiguousUser)
}

func TestAuthenticateUnavailable(t *testing.T) {
	c := NewClient(testConfig(), nil)
	c.dial = func(context.Context, config.LDAPConfig) (conn, error) { return nil, errors.New("connection refused") }
	_, err := c.Authenticate(context.Background(), "mmuster", "pw")
	assert.ErrorIs(t, err, ErrUnavailable)

	fc := &fakeConn{bindErr: map[string]error{"cn=svc,dc=example,dc=org": errors.New("down")}}
	_, err = newTestClient(fc).Authenticate(context.Background(), "mmuster", "pw")
	assert.ErrorIs(t, err, ErrUnavailable)

	fc = &fakeConn{searchErr: errors.New("timeout")}
	_, err = newTestClient(fc).Authenticate(context.Background(), "mmuster", "pw")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGroupNames(t *testing.T) {
	got := GroupNames([]string{"cn=a,ou=g,dc=x", " b ", "", "CN=c,dc=x", "cn=a,ou=other"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
