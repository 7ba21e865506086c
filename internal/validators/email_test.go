package validators

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	mx    map[string]int
	hosts map[string]int
	asked []string
}

func (f *fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	f.asked = append(f.asked, name)
	n, ok := f.mx[name]
	if !ok {
		return nil, errors.New("no such host")
	}
	return make([]*net.MX, n), nil
}

func (f *fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	n, ok := f.hosts[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return make([]net.IPAddr, n), nil
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@salon.fr", NormalizeEmail("  Ana@Salon.FR "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "salon.fr", EmailDomain(" Ana@SALON.fr"))
	assert.Equal(t, "salon.fr", EmailDomain("a@b@salon.fr"))
	assert.Empty(t, EmailDomain("ana"))
	assert.Empty(t, EmailDomain("@salon.fr"))
	assert.Empty(t, EmailDomain("ana@"))
}

func TestEmailDomainAccepts(t *testing.T) {
	r := &fakeResolver{
		mx:    map[string]int{"salon.fr": 1, "empty.fr": 0},
		hosts: map[string]int{"web-only.fr": 2},
	}
	ctx := context.Background()

	assert.True(t, EmailDomainAccepts(ctx, r, "Ana@SALON.fr"))
	assert.True(t, EmailDomainAccepts(ctx, r, "bea@web-only.fr"), "address record is enough")
	assert.False(t, EmailDomainAccepts(ctx, r, "bea@empty.fr"))
	assert.False(t, EmailDomainAccepts(ctx, r, "bea@nowhere.fr"))

	r.asked = nil
	assert.False(t, EmailDomainAccepts(ctx, r, "no-at-sign"))
	assert.Empty(t, r.asked, "malformed address never hits the resolver")
}
