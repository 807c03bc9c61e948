package config

import (
	"io"
	"time"

	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
	yaml "gopkg.in/yaml.v2"
)

// Config represents configuration for the exporter
type Config struct {
	Nodes       []NodeConfig           `yaml:"nodes"`
	Lookup      *nodeaddr.LookupPolicy `yaml:"lookup"`
	DefaultPort int                    `yaml:"default-port"`

	Socket struct {
		SendBuffer    int `yaml:"send-buffer"`
		ReceiveBuffer int `yaml:"receive-buffer"`
	} `yaml:"socket"`

	DNS struct {
		Refresh    duration `yaml:"refresh"`
		Timeout    duration `yaml:"timeout"`
		Nameserver string   `yaml:"nameserver"`
		Mode       string   `yaml:"mode"`
		QueryOrder []string `yaml:"query-order"`
	} `yaml:"dns"`
}

// Settings returns the iterator settings described by the config. An unset
// lookup policy means nodeaddr.Default.
func (c *Config) Settings() nodeaddr.Settings {
	s := nodeaddr.Settings{
		SendBufferSize:    c.Socket.SendBuffer,
		ReceiveBufferSize: c.Socket.ReceiveBuffer,
	}
	if c.Lookup != nil {
		s.Lookup = *c.Lookup
	}
	return s
}

type duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (d *duration) UnmarshalYAML(unmashal func(interface{}) error) error {
	var s string
	if err := unmashal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(dur)
	return nil
}

// Duration is a convenience getter.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Set updates the underlying duration.
func (d *duration) Set(dur time.Duration) {
	*d = duration(dur)
}

// FromYAML reads YAML from reader and unmarshals it to Config
func FromYAML(r io.Reader) (*Config, error) {
	c := &Config{}
	err := yaml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
