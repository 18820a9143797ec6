// Package internal defines common functionality available within the library.
package internal

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is for various runtime settings, read from a JSON file. Any value
// left empty falls through to a default.
type Config struct {
	Driver          string `json:"driver"`
	Host            string `json:"host"`
	Port            int    `json:"port"`
	User            string `json:"user"`
	Database        string `json:"database"`
	SSLMode         string `json:"sslmode"`
	ApplicationName string `json:"application_name"`
}

// LogValue lets this type implement the [slog.LogValuer] interface.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("driver", c.Driver),
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("user", c.User),
		slog.String("database", c.Database),
		slog.String("sslmode", c.SSLMode),
		slog.String("application_name", c.ApplicationName),
	)
}

// General error values to help shape behavior.
var (
	ErrNotFound    = errors.New("not found")
	ErrDataInvalid = errors.New("data invalid")
)

// Names of environment variables for connecting to the DB.
const (
	EnvHost     = "PGHOST"
	EnvPort     = "PGPORT"
	EnvUser     = "PGUSER"
	EnvPassword = "PGPASSWORD"
	EnvDatabase = "PGDATABASE"
	EnvSSLMode  = "PGSSLMODE"
)

// Connection defaults, used when neither the environment nor a config file
// provides a value.
const (
	DefaultDriver          = "postgres"
	DefaultHost            = "localhost"
	DefaultPort            = 5433
	DefaultUser            = "practice"
	DefaultPassword        = "practice"
	DefaultDatabase        = "practice_db"
	DefaultSSLMode         = "disable"
	DefaultApplicationName = "pgsh"
)

// ReadConfig loads a Config from the JSON file at path. If there is no file,
// then the output wraps ErrNotFound.
func ReadConfig(path string) (out Config, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: config file %s", ErrNotFound, path)
		return
	} else if err != nil {
		return
	}
	if err = json.Unmarshal(data, &out); err != nil {
		err = fmt.Errorf("%w: config file %s; %w", ErrDataInvalid, path, err)
	}
	return
}

// LoadEnvFile sets environment variables from a dotenv file. Variables that
// are already set keep their values. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ConnectionConfig is everything needed to connect to the DB. It is resolved
// once per process and is not modified afterwards.
type ConnectionConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	ApplicationName string
}

// LogValue lets this type implement the [slog.LogValuer] interface. The
// password is redacted.
func (c ConnectionConfig) LogValue() slog.Value {
	password := ""
	if c.Password != "" {
		password = "REDACTED"
	}
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("user", c.User),
		slog.String("password", password),
		slog.String("database", c.Database),
		slog.String("sslmode", c.SSLMode),
		slog.String("application_name", c.ApplicationName),
	)
}

// ResolveConnection builds a ConnectionConfig. Each value comes from the
// environment, via lookupEnv, if it is set there. Otherwise it comes from
// conf if non-empty there, and finally from a default.
func ResolveConnection(conf Config, lookupEnv func(string) (string, bool)) (out ConnectionConfig, err error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	pick := func(key, fromConf, fallback string) string {
		if val, ok := lookupEnv(key); ok {
			return val
		}
		if fromConf != "" {
			return fromConf
		}
		return fallback
	}

	out = ConnectionConfig{
		Host:            pick(EnvHost, conf.Host, DefaultHost),
		Port:            DefaultPort,
		User:            pick(EnvUser, conf.User, DefaultUser),
		Password:        pick(EnvPassword, "", DefaultPassword),
		Database:        pick(EnvDatabase, conf.Database, DefaultDatabase),
		SSLMode:         pick(EnvSSLMode, conf.SSLMode, DefaultSSLMode),
		ApplicationName: cmp.Or(conf.ApplicationName, DefaultApplicationName),
	}

	if conf.Port > 0 {
		out.Port = conf.Port
	}
	if val, ok := lookupEnv(EnvPort); ok {
		port, perr := strconv.Atoi(val)
		if perr != nil || port < 1 || port > 65535 {
			err = fmt.Errorf("%w: %s must be a port number, got %q", ErrDataInvalid, EnvPort, val)
			return
		}
		out.Port = port
	}

	return
}

// DSN formats the config as a URL understood by both the lib/pq and pgx
// drivers.
func (c ConnectionConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	query := url.Values{}
	if c.SSLMode != "" {
		query.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" {
		query.Set("application_name", c.ApplicationName)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
