package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveHeaderWins(t *testing.T) {
	r := NewResolver("X-Tenant-ID", "printmine.in", "")
	req := httptest.NewRequest("GET", "http://shopa.printmine.in/bill", nil)
	req.Header.Set("X-Tenant-ID", "shopb")
	if got := r.Resolve(req); got != "shopb" {
		t.Fatalf("want header tenant shopb, got %q", got)
	}
}

func TestResolveSubdomain(t *testing.T) {
	r := NewResolver("", "printmine.in", "")
	cases := []struct {
		host string
		want string
	}{
		{"shopa.printmine.in", "shopa"},
		{"shopa.printmine.in:8080", "shopa"},
		{"printmine.in", ""},
		{"other.example.com", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "http://"+tc.host+"/", nil)
		req.Host = tc.host
		if got := r.Resolve(req); got != tc.want {
			t.Errorf("host %s: want %q, got %q", tc.host, tc.want, got)
		}
	}
}

func TestResolveNoRootDomain(t *testing.T) {
	r := NewResolver("", "", "")
	for _, host := range []string{"localhost", "localhost:3000", "api.example.com"} {
		req := httptest.NewRequest("GET", "http://"+host+"/", nil)
		req.Host = host
		if got := r.Resolve(req); got != "" {
			t.Errorf("host %s: want no tenant, got %q", host, got)
		}
	}
}

func TestMiddlewareDefaultTenant(t *testing.T) {
	r := NewResolver("", "", "default")
	req := httptest.NewRequest("GET", "http://localhost/", nil)
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = From(req.Context())
	})
	r.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	if got != "default" {
		t.Fatalf("want default tenant, got %q", got)
	}
}

func TestPrefixKey(t *testing.T) {
	if got := PrefixKey("shopa", "bill:items"); got != "shopa:bill:items" {
		t.Fatalf("got %q", got)
	}
	if got := PrefixKey("", "bill:items"); got != "bill:items" {
		t.Fatalf("got %q", got)
	}
}
