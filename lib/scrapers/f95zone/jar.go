package f95zone

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// CookieJar is a serializable cookie store keyed by domain and cookie
// name. Every in-flight request both reads the jar (to attach cookies)
// and writes it (to persist Set-Cookie results), so all access goes
// through a mutex; updates are read-modify-write per cookie key.
type CookieJar struct {
	mu      sync.Mutex
	cookies map[string]map[string]*http.Cookie
}

func NewCookieJar() *CookieJar {
	return &CookieJar{cookies: map[string]map[string]*http.Cookie{}}
}

func cookieDomain(u *url.URL, c *http.Cookie) string {
	domain := strings.TrimPrefix(c.Domain, ".")
	if domain == "" {
		domain = u.Hostname()
	}
	return strings.ToLower(domain)
}

func domainMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func expired(c *http.Cookie) bool {
	return !c.Expires.IsZero() && c.Expires.Before(time.Now())
}

// SetCookies implements http.CookieJar.
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		domain := cookieDomain(u, c)
		byName := j.cookies[domain]
		if byName == nil {
			byName = map[string]*http.Cookie{}
			j.cookies[domain] = byName
		}

		if c.MaxAge < 0 || expired(c) {
			delete(byName, c.Name)
			continue
		}

		stored := *c
		stored.Domain = domain
		if c.MaxAge > 0 {
			stored.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		byName[c.Name] = &stored
	}
}

// Cookies implements http.CookieJar.
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := strings.ToLower(u.Hostname())
	var out []*http.Cookie
	for domain, byName := range j.cookies {
		if !domainMatches(host, domain) {
			continue
		}
		for _, c := range byName {
			if expired(c) {
				continue
			}
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Get returns the named cookie for the host, or nil.
func (j *CookieJar) Get(host, name string) *http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	host = strings.ToLower(host)
	for domain, byName := range j.cookies {
		if !domainMatches(host, domain) {
			continue
		}
		if c, ok := byName[name]; ok && !expired(c) {
			copied := *c
			return &copied
		}
	}
	return nil
}

// RetainOnly discards every cookie belonging to the host's domain except
// the named ones. Cookies of other domains are never modified.
func (j *CookieJar) RetainOnly(host string, names ...string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	keep := map[string]bool{}
	for _, n := range names {
		keep[n] = true
	}

	host = strings.ToLower(host)
	for domain, byName := range j.cookies {
		if !domainMatches(host, domain) {
			continue
		}
		for name := range byName {
			if !keep[name] {
				delete(byName, name)
			}
		}
	}
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func (j *CookieJar) export() []storedCookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []storedCookie
	for domain, byName := range j.cookies {
		for _, c := range byName {
			out = append(out, storedCookie{
				Name:    c.Name,
				Value:   c.Value,
				Domain:  domain,
				Path:    c.Path,
				Expires: c.Expires,
			})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Domain != out[b].Domain {
			return out[a].Domain < out[b].Domain
		}
		return out[a].Name < out[b].Name
	})
	return out
}

func (j *CookieJar) restore(cookies []storedCookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = map[string]map[string]*http.Cookie{}
	for _, sc := range cookies {
		byName := j.cookies[sc.Domain]
		if byName == nil {
			byName = map[string]*http.Cookie{}
			j.cookies[sc.Domain] = byName
		}
		byName[sc.Name] = &http.Cookie{
			Name:    sc.Name,
			Value:   sc.Value,
			Domain:  sc.Domain,
			Path:    sc.Path,
			Expires: sc.Expires,
		}
	}
}
