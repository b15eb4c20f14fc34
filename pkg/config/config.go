package config

import (
	"os"
	"path/filepath"

	"github.com/Slach/catalog-browser/pkg/types"
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	KindElasticsearch = "elasticsearch"
	KindClickHouse    = "clickhouse"

	EnvPrefix = "CATALOG_BROWSER_"
)

var ErrUnknownBackend = errors.New("unknown backend")

type Backend struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"` // elasticsearch or clickhouse
	Addresses []string `yaml:"addresses"`
	Database  string   `yaml:"database"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	// IndexPrefix is prepended to catalog names to get the index or table name
	IndexPrefix string `yaml:"index_prefix"`
	Protocol    string `yaml:"protocol"` // clickhouse only: http or native
	Secure      bool   `yaml:"secure"`
	TLSVerify   bool   `yaml:"tls_verify"`
	TLSCert     string `yaml:"tls_cert"`
	TLSKey      string `yaml:"tls_key"`
	TLSCa       string `yaml:"tls_ca"`
	Retries     int    `yaml:"retries"`
}

type UI struct {
	LogScale   bool `yaml:"log_scale" env:"LOG_SCALE"`
	TermsSize  int  `yaml:"terms_size" env:"TERMS_SIZE"`
	HitsSize   int  `yaml:"hits_size" env:"HITS_SIZE"`
	UsingMouse bool `yaml:"using_mouse" env:"USING_MOUSE"`
}

type Config struct {
	Backends []Backend `yaml:"backends"`
	// Backend is the name of the backend used when --backend is not given
	Backend      string `yaml:"backend" env:"BACKEND"`
	CatalogsPath string `yaml:"catalogs" env:"CATALOGS"`
	Listen       string `yaml:"listen" env:"LISTEN"`
	UI           UI     `yaml:"ui" envPrefix:"UI_"`
}

func Default() *Config {
	return &Config{
		Listen: ":8080",
		UI: UI{
			TermsSize:  100,
			HitsSize:   50,
			UsingMouse: true,
		},
	}
}

// Load reads the config file given on the command line or the default one
// under home, then applies CATALOG_BROWSER_* environment overrides. A missing
// default file is not an error.
func Load(cli *types.CLI, home string) (*Config, error) {
	path := filepath.Join(home, "catalog-browser.yml")
	explicit := cli != nil && cli.ConfigPath != ""
	if explicit {
		path = cli.ConfigPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "can't parse config %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrapf(err, "can't read config %s", path)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "can't parse environment")
	}

	if cfg.CatalogsPath != "" && !filepath.IsAbs(cfg.CatalogsPath) {
		cfg.CatalogsPath = filepath.Join(filepath.Dir(path), cfg.CatalogsPath)
	}
	if cli != nil && cli.Backend != "" {
		cfg.Backend = cli.Backend
	}
	return cfg, nil
}

// SelectedBackend returns the named backend, or the first one when no name is configured
func (c *Config) SelectedBackend() (Backend, error) {
	if c.Backend == "" {
		if len(c.Backends) == 0 {
			return Backend{}, errors.Wrap(ErrUnknownBackend, "no backends configured")
		}
		return c.Backends[0], nil
	}
	for _, b := range c.Backends {
		if b.Name == c.Backend {
			return b, nil
		}
	}
	return Backend{}, errors.Wrap(ErrUnknownBackend, c.Backend)
}
