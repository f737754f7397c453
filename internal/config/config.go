package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"os"
	"time"
)

type Config struct {
	Env        string `yaml:"env" env:"COTIZADOR_ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`
	Paths      Paths       `yaml:"paths"`
	Quote      Quote       `yaml:"quote"`
	PDF        PDF         `yaml:"pdf"`
	Sync       CatalogSync `yaml:"catalog_sync"`
	DB         DB          `yaml:"db"`
	Auth       Auth        `yaml:"auth"`
	Backend    Backend     `yaml:"backend"`

	AdminLogin string `yaml:"admin_login" env:"COTIZADOR_ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"COTIZADOR_ADMIN_PASS"`
	AdminRealm string `yaml:"admin_realm" env-default:"Cotizador admin"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"COTIZADOR_ADDRESS" env-default:"localhost:8000"`
	Timeout     time.Duration `yaml:"timeout"  env-default:"150s"`
	IdleTimeout time.Duration `yaml:"idle_timeout"  env-default:"60s"`
}

type Paths struct {
	Catalog     string `yaml:"catalog" env-default:"./data/machines.json"`
	Backups     string `yaml:"backups" env-default:"./respaldos"`
	HistoryDir  string `yaml:"history_dir" env-default:"./data"`
	HistoryDocs string `yaml:"history_docs" env-default:"./historial_docs"`
	Mappings    string `yaml:"mappings" env-default:"./data/template_mappings.json"`
	Templates   string `yaml:"templates" env-default:"./plantillas"`
	Output      string `yaml:"output" env-default:"./salidas"`
}

// Quote: значения по умолчанию для шапки коммерческого предложения.
type Quote struct {
	Currency     string `yaml:"currency" env-default:"USD"`
	ValidityDays int    `yaml:"validity_days" env-default:"30"`
	Advisor      string `yaml:"advisor"`
	Availability string `yaml:"availability" env-default:"En stock"`
}

type PDF struct {
	Enabled bool          `yaml:"enabled" env-default:"true"`
	Binary  string        `yaml:"binary" env-default:"libreoffice"`
	Timeout time.Duration `yaml:"timeout" env-default:"90s"`
}

type CatalogSync struct {
	Enabled       bool          `yaml:"enabled" env:"CATALOG_SYNC_ENABLED"`
	XLSXPath      string        `yaml:"xlsx_path" env:"CATALOG_SYNC_XLSX"`
	SheetID       string        `yaml:"sheet_id" env:"CATALOG_SHEET_ID"`
	MachinesSheet string        `yaml:"machines_sheet" env-default:"DB_Maquinas"`
	PricesSheet   string        `yaml:"prices_sheet" env-default:"DB_Precios"`
	TTL           time.Duration `yaml:"ttl" env:"CATALOG_SYNC_TTL" env-default:"300s"`
	Timeout       time.Duration `yaml:"timeout" env-default:"15s"`
}

type DB struct {
	Enabled    bool   `yaml:"enabled" env:"COTIZADOR_DB_ENABLED"`
	User       string `yaml:"user" env:"COTIZADOR_DB_USER"`
	Password   string `yaml:"password" env:"COTIZADOR_DB_PASSWORD"`
	Host       string `yaml:"host" env-default:"localhost"`
	Port       int    `yaml:"port" env-default:"3306"`
	Name       string `yaml:"name" env-default:"cotizador"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`
	Migrations bool   `yaml:"migrations" env-default:"true"`
}

type Auth struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"COTIZADOR_JWT_SECRET"`
	TokenTTL         time.Duration `yaml:"token_ttl" env-default:"12h"`
	DefaultAdmin     string        `yaml:"default_admin" env-default:"admin"`
	DefaultAdminPass string        `yaml:"default_admin_pass" env:"COTIZADOR_DEFAULT_ADMIN_PASS"`
	DefaultLicense   string        `yaml:"default_license" env-default:"LIC-ADMIN"`
}

type Backend struct {
	URL      string        `yaml:"url" env:"COTIZADOR_BACKEND_URL"`
	Timeout  time.Duration `yaml:"timeout" env-default:"8s"`
	Username string        `yaml:"username" env:"COTIZADOR_BACKEND_USER"`
	Password string        `yaml:"password" env:"COTIZADOR_BACKEND_PASSWORD"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// без файла работаем на значениях по умолчанию и переменных окружения
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
