package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalid = errors.New("catalog: invalid")

type Plan struct {
	Label string `yaml:"label"`
	Tier  string `yaml:"tier"`
	URL   string `yaml:"url"`
}

type Service struct {
	Name  string `yaml:"name"`
	Plans []Plan `yaml:"plans"`
}

// Catalog is the read-only table of services. Accessors hand out copies.
type Catalog struct {
	services []Service
}

// New validates services and takes a private copy of them.
func New(services []Service) (*Catalog, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("%w: no services", ErrInvalid)
	}
	for i, s := range services {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("%w: service %d has no name", ErrInvalid, i)
		}
		for j, p := range s.Plans {
			if strings.TrimSpace(p.Label) == "" {
				return nil, fmt.Errorf("%w: %s plan %d has no label", ErrInvalid, s.Name, j)
			}
			u, err := url.Parse(p.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, fmt.Errorf("%w: %s plan %q has bad url %q", ErrInvalid, s.Name, p.Label, p.URL)
			}
		}
	}
	return &Catalog{services: copyServices(services)}, nil
}

// Default is the built-in catalog.
func Default() *Catalog {
	c, err := New([]Service{
		{
			Name: "Cricket VIP Tips",
			Plans: []Plan{
				{Label: "Join Weekly", Tier: "VIP", URL: "https://whop.com/checkout/plan_eBTHj4g6J1DAY/"},
				{Label: "Join Monthly", Tier: "VIP", URL: "https://whop.com/checkout/plan_50xJ6DzpNc4gp/"},
				{Label: "Join 3 Months", Tier: "VIP", URL: "https://whop.com/checkout/plan_6sxlf4aofEXAL/"},
				{Label: "Join Life Time", Tier: "VIP", URL: "https://whop.com/checkout/plan_YSNEgKjyX74KE/"},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int { return len(c.services) }

// Service returns the service at index i.
func (c *Catalog) Service(i int) (Service, bool) {
	if i < 0 || i >= len(c.services) {
		return Service{}, false
	}
	return copyService(c.services[i]), true
}

func (c *Catalog) Services() []Service { return copyServices(c.services) }

func copyServices(in []Service) []Service {
	out := make([]Service, len(in))
	for i, s := range in {
		out[i] = copyService(s)
	}
	return out
}

func copyService(s Service) Service {
	return Service{Name: s.Name, Plans: append([]Plan(nil), s.Plans...)}
}
