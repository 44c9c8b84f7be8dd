package scopehost

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type ServiceInfo struct {
	Key      string
	Lifetime string
	Hosted   bool
}

// Services describes every registration in registration order.
func (c *Container) Services() []ServiceInfo {
	entries := c.internal.Entries()
	services := make([]ServiceInfo, 0, len(entries))
	for _, e := range entries {
		services = append(
			services, ServiceInfo{
				Key:      e.Key,
				Lifetime: e.Lifetime.String(),
				Hosted:   e.Hosted,
			},
		)
	}
	return services
}

func (c *Container) PrintServices() {
	c.FprintServices(os.Stdout)
}

// FprintServices writes one line per registration. Hosted services are marked
// with ● and numbered in the order their hosts start them.
func (c *Container) FprintServices(w io.Writer) {
	services := c.Services()

	if len(services) == 0 {
		_, _ = fmt.Fprintln(w, "(empty container)")
		return
	}

	n := 0
	for _, svc := range services {
		if svc.Hosted {
			n++
			_, _ = fmt.Fprintf(w, "● %-9s %s (start #%d)\n", svc.Lifetime, shortName(svc.Key), n)
			continue
		}
		_, _ = fmt.Fprintf(w, "○ %-9s %s\n", svc.Lifetime, shortName(svc.Key))
	}
}

func (c *Container) SprintServices() string {
	var sb strings.Builder
	c.FprintServices(&sb)
	return sb.String()
}

func shortName(key string) string {
	prefix := ""
	for strings.HasPrefix(key, "*") {
		prefix += "*"
		key = key[1:]
	}
	if idx := strings.LastIndex(key, "/"); idx != -1 {
		key = key[idx+1:]
	}
	return prefix + key
}
