package badgeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleBody = `{
  "customBadgesArray": {"badge": "", "name": "", "badges": [{"name": "X", "badge": "https://img/x.png"}]},
  "aliu": {"dev": false, "donor": true, "contributor": false, "custom": null},
  "bd": {"dev": true},
  "enmity": {
    "supporter": {"data": {"name": "Supporter", "id": "s", "url": {"dark": "https://img/sd.png", "light": "https://img/sl.png"}}},
    "staff": null
  },
  "goosemod": {"sponsor": false, "dev": false, "translator": true},
  "vencord": {"contributor": true, "cutie": [{"tooltip": "cutie", "image": "https://img/c.png"}]},
  "userpfp": "https://img/pfp.png"
}`

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_ValidatesBaseURL(t *testing.T) {
	for _, bad := range []string{"", "   ", "ftp://host", "not a url", "http://", "/relative"} {
		if _, err := NewClient(bad); !errors.Is(err, ErrInvalidBaseURL) {
			t.Fatalf("NewClient(%q) err = %v; want ErrInvalidBaseURL", bad, err)
		}
	}
	c, err := NewClient(" https://api.example.com/ ")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.baseURL != "https://api.example.com" {
		t.Fatalf("baseURL = %q", c.baseURL)
	}
}

func TestFetchEligibility_OK(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v2/text/badges" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("user"); got != "123&x" {
			t.Errorf("user query = %q", got)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing Accept header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	})

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := c.FetchEligibility(context.Background(), "123&x")
	if err != nil {
		t.Fatalf("FetchEligibility: %v", err)
	}
	if len(got.CustomBadges) != 1 || got.CustomBadges[0].Name != "X" {
		t.Fatalf("custom badges = %#v", got.CustomBadges)
	}
	if !got.Legacy.Aliucord.Donor || !got.Legacy.BetterDiscord.Developer || !got.Legacy.GooseMod.Translator {
		t.Fatalf("flags = %#v", got.Legacy)
	}
	if got.LegacyCustomBadge != nil {
		t.Fatalf("null custom must stay absent")
	}
	if s := got.DynamicCommunityBadges["supporter"]; s == nil || s.ImageURLDark != "https://img/sd.png" {
		t.Fatalf("supporter slot = %#v", s)
	}
	if _, ok := got.DynamicCommunityBadges["staff"]; ok {
		t.Fatalf("null staff slot must be absent")
	}
	if !got.Contributor.Contributor || len(got.CutieList) != 1 || got.UserPFP == "" {
		t.Fatalf("vencord/pfp = %#v %#v %q", got.Contributor, got.CutieList, got.UserPFP)
	}
}

func TestFetchEligibility_NotFoundIsEmptyRecord(t *testing.T) {
	for _, body := range []string{"", `{"error":"user not found"}`, "not json"} {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(body))
		})
		c, _ := NewClient(srv.URL)
		got, err := c.FetchEligibility(context.Background(), "1")
		if err != nil {
			t.Fatalf("404 (%q) must not be an error: %v", body, err)
		}
		if got == nil || !got.IsEmpty() {
			t.Fatalf("404 (%q) must decode to an empty record, got %#v", body, got)
		}
	}
}

func TestFetchEligibility_UnexpectedStatus(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusTooManyRequests, http.StatusForbidden, http.StatusNoContent} {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		c, _ := NewClient(srv.URL)
		got, err := c.FetchEligibility(context.Background(), "1")
		if got != nil {
			t.Fatalf("status %d returned a record", code)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("status %d err = %v; want ErrUnexpectedStatus", code, err)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != code || se.UserID != "1" {
			t.Fatalf("StatusError = %#v", se)
		}
		if !strings.Contains(err.Error(), "unexpected status") {
			t.Fatalf("error text = %q", err.Error())
		}
	}
}

func TestFetchEligibility_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := NewClient(url)
	if _, err := c.FetchEligibility(context.Background(), "1"); err == nil || errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("want transport error, got %v", err)
	}
}

func TestFetchEligibility_Timeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	c, _ := NewClient(srv.URL, WithTimeout(30*time.Millisecond))
	if _, err := c.FetchEligibility(context.Background(), "1"); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestFetchEligibility_RateLimited(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	})

	c, _ := NewClient(srv.URL, WithRateLimit(0.001, 1))
	if _, err := c.FetchEligibility(context.Background(), "1"); err != nil {
		t.Fatalf("first call uses the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.FetchEligibility(ctx, "1"); err == nil {
		t.Fatalf("second call should fail waiting for a token")
	}
	if hits.Load() != 1 {
		t.Fatalf("throttled call reached the server (hits=%d)", hits.Load())
	}
}

func TestWithRateLimit_DisabledAndBurstCoercion(t *testing.T) {
	c, _ := NewClient("http://x", WithRateLimit(0, 5))
	if c.limiter != nil {
		t.Fatalf("rps<=0 should disable the limiter")
	}
	c, _ = NewClient("http://x", WithRateLimit(3, 0))
	if c.limiter == nil || c.limiter.Burst() != 1 {
		t.Fatalf("burst should be coerced to 1")
	}
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Minute}
	c, _ := NewClient("http://x", WithHTTPClient(hc), WithHTTPClient(nil))
	if c.http != hc {
		t.Fatalf("custom http client not installed")
	}
}
