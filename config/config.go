// Package config loads the YAML settings for a NanoRPC client or server,
// the way maffinnn's distributed-file-system config package loads its own
// single serverAddr field — expanded here to the handful of knobs this
// module's client and server actually take.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Client holds the settings for dialing a remote NanoRPC endpoint over
// HTTP(S).
type Client struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Path    string `yaml:"path"`
	Workers int    `yaml:"workers"`
	TLS     *TLS   `yaml:"tls,omitempty"`
}

// Server holds the settings for listening for NanoRPC requests over
// HTTP(S).
type Server struct {
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
	TLS     *TLS   `yaml:"tls,omitempty"`
}

// TLS names the certificate/key pair for manual TLS setup, or enables
// autocert against a domain list. Exactly one of (CertFile, KeyFile) or
// (Autocert, Domains) should be set.
type TLS struct {
	CertFile string   `yaml:"certFile,omitempty"`
	KeyFile  string   `yaml:"keyFile,omitempty"`
	Autocert bool     `yaml:"autocert,omitempty"`
	Domains  []string `yaml:"domains,omitempty"`
	CacheDir string   `yaml:"cacheDir,omitempty"`
}

// LoadClient reads and parses a Client config from path.
func LoadClient(path string) (*Client, error) {
	var c Client
	if err := load(path, &c); err != nil {
		return nil, err
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return &c, nil
}

// LoadServer reads and parses a Server config from path.
func LoadServer(path string) (*Server, error) {
	var s Server
	if err := load(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}
