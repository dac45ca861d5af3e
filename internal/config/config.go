package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-required:"true"`
	UploadsPath string `yaml:"uploads_path" env:"UPLOADS_PATH" env-required:"true"`
	AuthSecret  string `yaml:"auth_secret" env:"AUTH_SECRET" env-required:"true"`
	Database    `yaml:"database"`
	HTTPServer  `yaml:"http_server"`
	Redis       Redis `yaml:"redis"`
	Rawg        Rawg  `yaml:"rawg"`
}

type Database struct {
	Host       string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port       int    `yaml:"port" env:"PORT" env-required:"true"`
	UsernameDB string `yaml:"username-db" env:"USERNAMEDB" env-required:"true"`
	Password   string `yaml:"password" env:"PASSWORD"`
	DBName     string `yaml:"dbname" env:"DBNAME" env-default:"gamejournal"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	Cors        []string      `yaml:"cors" env-default:"[http://localhost:3000]"`
}

// Redis is optional; an empty address disables the discovery cache.
type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Rawg struct {
	BaseURL string        `yaml:"base_url" env:"RAWG_BASE_URL" env-default:"https://api.rawg.io/api"`
	APIKey  string        `yaml:"api_key" env:"RAWG_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

func MustLoad() *Config {
	configPath := flag.String("config", "", "path to config yaml file")
	flag.Parse()
	if *configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", *configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(*configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s - %s", *configPath, err)
	}

	return &cfg
}

func (cfg *Database) GetDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.UsernameDB,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)
}
