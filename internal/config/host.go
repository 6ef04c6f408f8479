package config

import (
	"net"
	"net/http"
	"strings"
)

// HostConfig holds request settings for one host.
type HostConfig struct {
	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .linkcrawl configuration file.
type File struct {
	// Seeds are the seed sources crawled when none is given on the command line.
	Seeds []string `yaml:"seeds,omitempty"`

	// Defaults applies to every host unless overridden in Hosts.
	Defaults HostConfig `yaml:"defaults,omitempty"`

	// Hosts maps a host ("example.com" or "example.com:8080") to its settings.
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`
}

// GetHostConfig returns the settings for host merged over the defaults.
// An exact "host:port" entry wins over a bare hostname entry.
func (cf *File) GetHostConfig(host string) HostConfig {
	result := HostConfig{Cookie: cf.Defaults.Cookie}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	hc, ok := cf.Hosts[strings.ToLower(host)]
	if !ok {
		if name, _, err := net.SplitHostPort(host); err == nil {
			hc, ok = cf.Hosts[strings.ToLower(name)]
		}
	}
	if !ok {
		return result
	}

	if hc.Cookie != "" {
		result.Cookie = hc.Cookie
	}
	if len(hc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range hc.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// HeadersFor returns the request headers configured for host.
// A nil File yields no headers.
func (cf *File) HeadersFor(host string) http.Header {
	h := make(http.Header)
	if cf == nil {
		return h
	}

	hc := cf.GetHostConfig(host)
	for k, v := range hc.Headers {
		h.Set(k, v)
	}
	if hc.Cookie != "" {
		h.Set("Cookie", hc.Cookie)
	}
	return h
}
