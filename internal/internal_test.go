package internal_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/rafaelespinoza/pgsh/internal"
)

func TestResolveConnection(t *testing.T) {
	envFrom := func(vals map[string]string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			val, ok := vals[key]
			return val, ok
		}
	}

	tests := []struct {
		name        string
		conf        internal.Config
		env         map[string]string
		expected    internal.ConnectionConfig
		expectError bool
	}{
		{
			name: "all defaults",
			expected: internal.ConnectionConfig{
				Host:            "localhost",
				Port:            5433,
				User:            "practice",
				Password:        "practice",
				Database:        "practice_db",
				SSLMode:         "disable",
				ApplicationName: "pgsh",
			},
		},
		{
			name: "config file values override defaults",
			conf: internal.Config{Host: "db.internal", Port: 6543, User: "alice", Database: "things", SSLMode: "require", ApplicationName: "app"},
			expected: internal.ConnectionConfig{
				Host:            "db.internal",
				Port:            6543,
				User:            "alice",
				Password:        "practice",
				Database:        "things",
				SSLMode:         "require",
				ApplicationName: "app",
			},
		},
		{
			name: "env values override config file",
			conf: internal.Config{Host: "db.internal", Port: 6543, User: "alice", Database: "things"},
			env: map[string]string{
				internal.EnvHost:     "10.0.0.1",
				internal.EnvPort:     "5432",
				internal.EnvUser:     "bob",
				internal.EnvPassword: "hunter2",
				internal.EnvDatabase: "other",
				internal.EnvSSLMode:  "verify-full",
			},
			expected: internal.ConnectionConfig{
				Host:            "10.0.0.1",
				Port:            5432,
				User:            "bob",
				Password:        "hunter2",
				Database:        "other",
				SSLMode:         "verify-full",
				ApplicationName: "pgsh",
			},
		},
		{
			name: "env value set but empty",
			env:  map[string]string{internal.EnvPassword: ""},
			expected: internal.ConnectionConfig{
				Host:            "localhost",
				Port:            5433,
				User:            "practice",
				Password:        "",
				Database:        "practice_db",
				SSLMode:         "disable",
				ApplicationName: "pgsh",
			},
		},
		{
			name:        "port is not a number",
			env:         map[string]string{internal.EnvPort: "abc"},
			expectError: true,
		},
		{
			name:        "port out of range",
			env:         map[string]string{internal.EnvPort: "70000"},
			expectError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := internal.ResolveConnection(test.conf, envFrom(test.env))
			if test.expectError {
				if !errors.Is(err, internal.ErrDataInvalid) {
					t.Fatalf("expected error (%v) to match %v", err, internal.ErrDataInvalid)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != test.expected {
				t.Errorf("wrong output\ngot      %+v\nexpected %+v", got, test.expected)
			}
		})
	}
}

func TestConnectionConfigDSN(t *testing.T) {
	conf := internal.ConnectionConfig{
		Host:            "localhost",
		Port:            5433,
		User:            "practice",
		Password:        "p@ss word",
		Database:        "practice_db",
		SSLMode:         "disable",
		ApplicationName: "pgsh",
	}

	got, err := url.Parse(conf.DSN())
	if err != nil {
		t.Fatal(err)
	}

	if got.Scheme != "postgres" {
		t.Errorf("wrong scheme; got %q", got.Scheme)
	}
	if got.Host != "localhost:5433" {
		t.Errorf("wrong host; got %q", got.Host)
	}
	if got.User.Username() != "practice" {
		t.Errorf("wrong user; got %q", got.User.Username())
	}
	if pass, _ := got.User.Password(); pass != "p@ss word" {
		t.Errorf("wrong password; got %q", pass)
	}
	if got.Path != "/practice_db" {
		t.Errorf("wrong path; got %q", got.Path)
	}
	if val := got.Query().Get("sslmode"); val != "disable" {
		t.Errorf("wrong sslmode; got %q", val)
	}
	if val := got.Query().Get("application_name"); val != "pgsh" {
		t.Errorf("wrong application_name; got %q", val)
	}
}

func TestConnectionConfigLogValue(t *testing.T) {
	conf := internal.ConnectionConfig{User: "practice", Password: "secret"}

	for _, attr := range conf.LogValue().Group() {
		if attr.Value.String() == "secret" {
			t.Fatalf("password leaked at key %q", attr.Key)
		}
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		path := filepath.Join(dir, "ok.json")
		if err := os.WriteFile(path, []byte(`{"driver": "pgx", "host": "db", "port": 6000}`), 0600); err != nil {
			t.Fatal(err)
		}

		got, err := internal.ReadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if got.Driver != "pgx" || got.Host != "db" || got.Port != 6000 {
			t.Errorf("wrong config %+v", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := internal.ReadConfig(filepath.Join(dir, "nope.json"))
		if !errors.Is(err, internal.ErrNotFound) {
			t.Fatalf("expected error (%v) to match %v", err, internal.ErrNotFound)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte(`BAD`), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := internal.ReadConfig(path)
		if !errors.Is(err, internal.ErrDataInvalid) {
			t.Fatalf("expected error (%v) to match %v", err, internal.ErrDataInvalid)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	const key = "PGSH_TEST_LOAD_ENV_FILE"
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from_file\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("missing file", func(t *testing.T) {
		if err := internal.LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("does not override", func(t *testing.T) {
		t.Setenv(key, "already_set")
		if err := internal.LoadEnvFile(path); err != nil {
			t.Fatal(err)
		}
		if got := os.Getenv(key); got != "already_set" {
			t.Errorf("wrong value; got %q", got)
		}
	})

	t.Run("sets unset values", func(t *testing.T) {
		t.Setenv(key, "")
		os.Unsetenv(key)
		if err := internal.LoadEnvFile(path); err != nil {
			t.Fatal(err)
		}
		if got := os.Getenv(key); got != "from_file" {
			t.Errorf("wrong value; got %q", got)
		}
	})
}
