package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Varda003/EmoTune/internal/auth"
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/tasks"
	tu "github.com/Varda003/EmoTune/internal/testing"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Sunny-Day-42"

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "emotune.db")
	config.Auth.JWTSecret = "runner-test-secret-0123456789"
	config.Auth.BcryptCost = bcrypt.MinCost
	config.Credentials.Spotify = shared.SpotifyConfig{}
	config.Classifier.URL = ""
	config.Log.Level = "error"
	return config
}

func newTestRunner(t *testing.T, config *shared.Config) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard), Output: output})
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

// run executes a command constructor with args, as if typed after the program name.
func run(t *testing.T, r *Runner, build func(*Runner) *cli.Command, args ...string) error {
	t.Helper()
	cmd := build(r)
	return cmd.Run(context.Background(), append([]string{cmd.Name}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("With All Dependencies Provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.app != nil {
				t.Error("expected services to be built lazily")
			}
		})

		t.Run("With Nil Config Uses Defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("With Nil Logger Uses Default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("With Nil Output Uses Stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("Writes Formatted JSON Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("Writes Compact JSON Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("Handles Marshal Error With Non-serializable Data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("Handles Write Failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("Handles Newline Write Failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("Writes Plain Text Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("Handles Write Failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"setup", "migrate", "config", "serve", "recommend", "search", "liked", "user", "detect", "tui"} {
			if !seen[name] {
				t.Errorf("expected %q to be registered", name)
			}
		}
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("loadConfig Applies File And Environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := shared.CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}
		t.Setenv("EMOTUNE_SERVER_PORT", "6100")

		runner, _ := newTestRunner(t, nil)
		if err := runner.loadConfig(context.Background(), path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if runner.config.Server.Port != 6100 {
			t.Errorf("expected env override, got port %d", runner.config.Server.Port)
		}
		if runner.configPath != path {
			t.Errorf("expected configPath %s, got %s", path, runner.configPath)
		}
	})

	t.Run("Init Writes The Example Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "emotune.toml")
		runner, output := newTestRunner(t, nil)

		if err := run(t, runner, configCommand, "init", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "[server]") {
			t.Error("expected example config contents")
		}
		if !strings.Contains(output.String(), path) {
			t.Errorf("expected path in output, got %q", output.String())
		}

		if err := run(t, runner, configCommand, "init", path); err == nil {
			t.Error("expected error when the file already exists")
		}
	})

	t.Run("Init Defaults To config.toml In The Working Directory", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		runner, _ := newTestRunner(t, nil)
		if err := run(t, runner, configCommand, "init"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, "config.toml")
	})

	t.Run("Show Masks Secrets", func(t *testing.T) {
		config := testConfig(t)
		config.Mail.SMTPPass = "smtp-password"
		runner, output := newTestRunner(t, config)

		if err := run(t, runner, configCommand, "show"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		for _, secret := range []string{config.Auth.JWTSecret, "smtp-password"} {
			if strings.Contains(result, secret) {
				t.Errorf("expected %q to be masked", secret)
			}
		}
		if !strings.Contains(result, maskedSecret) {
			t.Error("expected masked placeholder in output")
		}
		if runner.config.Auth.JWTSecret != "runner-test-secret-0123456789" {
			t.Error("expected the loaded config to be left untouched")
		}
	})

	t.Run("mask", func(t *testing.T) {
		tc := []struct {
			name   string
			secret string
			want   string
		}{
			{"empty", "", ""},
			{"short", "abcd", maskedSecret},
			{"long", "abcdefgh", "ab" + maskedSecret + "gh"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := mask(tt.secret); got != tt.want {
					t.Errorf("mask(%q) = %q, want %q", tt.secret, got, tt.want)
				}
			})
		}
	})
}

func TestSetupAndMigrate(t *testing.T) {
	runner, output := newTestRunner(t, testConfig(t))

	if err := run(t, runner, setupCommand); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	tu.AssertFileExists(t, runner.config.Database.Path)

	output.Reset()
	if err := run(t, runner, migrateCommand, "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if strings.Contains(output.String(), "pending") {
		t.Errorf("expected every migration applied, got %q", output.String())
	}

	output.Reset()
	if err := run(t, runner, migrateCommand, "rollback"); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if strings.Count(output.String(), "pending") != 1 {
		t.Errorf("expected exactly one pending migration, got %q", output.String())
	}

	output.Reset()
	if err := run(t, runner, migrateCommand, "up"); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	if strings.Contains(output.String(), "pending") {
		t.Errorf("expected migrations reapplied, got %q", output.String())
	}
}

func TestServices(t *testing.T) {
	t.Run("Rejects Invalid Config", func(t *testing.T) {
		config := testConfig(t)
		config.Auth.JWTSecret = ""
		runner, _ := newTestRunner(t, config)

		_, err := runner.services(context.Background())
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Builds Once Without Optional Services", func(t *testing.T) {
		runner, _ := newTestRunner(t, testConfig(t))

		a, err := runner.services(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		again, _ := runner.services(context.Background())
		if a != again {
			t.Error("expected the service graph to be reused")
		}

		if a.catalog != nil || a.cache != nil {
			t.Error("expected catalog and cache to be disabled")
		}

		deps := a.serverDeps()
		if deps.Catalog != nil {
			t.Error("expected a nil catalog interface")
		}
		if deps.Cache != nil {
			t.Error("expected a nil cache interface")
		}

		if err := runner.Close(); err != nil {
			t.Errorf("expected clean close, got %v", err)
		}
		if runner.app != nil {
			t.Error("expected services to be released")
		}
	})
}

func TestRecommendCommand(t *testing.T) {
	runner, output := newTestRunner(t, testConfig(t))

	t.Run("Falls Back Without A Catalog", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, recommendCommand, "--json", "--language", "hindi", "sad"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var result recommend.Result
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if result.Source != recommend.SourceFallback || result.Market != "IN" {
			t.Errorf("unexpected result %+v", result)
		}
		if len(result.Tracks) != recommend.DefaultLimit {
			t.Errorf("expected %d tracks, got %d", recommend.DefaultLimit, len(result.Tracks))
		}
	})

	t.Run("Unknown Emotion Is Treated As Neutral", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, recommendCommand, "--json", "--limit", "3", "bored"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var result recommend.Result
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if result.Emotion != "neutral" || len(result.Tracks) != 3 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Plain Output", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, recommendCommand, "happy"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "curated picks") {
			t.Errorf("expected fallback notice, got %q", output.String())
		}
	})

	t.Run("Requires An Emotion", func(t *testing.T) {
		err := run(t, runner, recommendCommand)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Search Requires A Catalog", func(t *testing.T) {
		err := run(t, runner, searchCommand, "adele")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestAccountAndLibraryCommands(t *testing.T) {
	ctx := context.Background()
	runner, output := newTestRunner(t, testConfig(t))
	email := "ana@example.com"

	if err := run(t, runner, userCommand, "create", "--name", "Ana", "--email", email, "--password", testPassword, "--genre", "pop"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(output.String(), email) {
		t.Errorf("expected email in output, got %q", output.String())
	}

	a, err := runner.services(ctx)
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	user, err := runner.lookupUser(ctx, a, email)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	t.Run("Duplicate Account Is Rejected", func(t *testing.T) {
		err := run(t, runner, userCommand, "create", "--name", "Ana", "--email", "ANA@example.com", "--password", testPassword)
		if !errors.Is(err, shared.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("Registration Session Is Not Left Active", func(t *testing.T) {
		sessions, err := a.tokens.Sessions(ctx, user.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(sessions) != 1 || !sessions[0].Revoked {
			t.Errorf("expected one revoked session, got %+v", sessions)
		}
	})

	for _, in := range []ledger.LikeInput{
		{SongTitle: "Happy", Artist: "Pharrell Williams", EmotionDetected: "happy"},
		{SongTitle: "Someone Like You", Artist: "Adele", EmotionDetected: "sad"},
		{SongTitle: "Walking on Sunshine", Artist: "Katrina and the Waves", EmotionDetected: "happy"},
	} {
		if _, _, err := a.ledger.Like(ctx, user.ID, in); err != nil {
			t.Fatalf("like: %v", err)
		}
	}

	t.Run("Liked List Filters By Emotion", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, likedCommand, "list", "--user", email, "--emotion", "HAPPY", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var songs []map[string]any
		if err := json.Unmarshal(output.Bytes(), &songs); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(songs) != 2 {
			t.Errorf("expected 2 happy songs, got %d", len(songs))
		}
	})

	t.Run("Liked List Requires A User", func(t *testing.T) {
		if err := run(t, runner, likedCommand, "list"); err == nil {
			t.Error("expected missing --user to fail")
		}
	})

	t.Run("Liked List Unknown User", func(t *testing.T) {
		err := run(t, runner, likedCommand, "list", "--user", "nobody@example.com")
		if !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Liked Stats", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, likedCommand, "stats", "--user", email, "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var stats ledger.Statistics
		if err := json.Unmarshal(output.Bytes(), &stats); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if stats.TotalLikedSongs != 3 || stats.MostLikedEmotion != "happy" || stats.EmotionsExplored != 2 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("Liked Export", func(t *testing.T) {
		tc := []struct {
			format string
			want   string
		}{
			{"csv", "Someone Like You"},
			{"md", "Adele - Someone Like You"},
			{"text", "Someone Like You"},
		}

		for _, tt := range tc {
			t.Run(tt.format, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "export."+tt.format)
				if err := run(t, runner, likedCommand, "export", "--user", email, "--format", tt.format, "--output", path); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				tu.AssertFileExists(t, path)
				if !strings.Contains(tu.MustReadFile(t, path), tt.want) {
					t.Errorf("expected %q in %s export", tt.want, tt.format)
				}
			})
		}

		t.Run("Unknown Format", func(t *testing.T) {
			err := run(t, runner, likedCommand, "export", "--user", email, "--format", "xml")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Revoke Sessions", func(t *testing.T) {
		if _, err := a.tokens.Issue(ctx, user.ID); err != nil {
			t.Fatal(err)
		}

		output.Reset()
		if err := run(t, runner, userCommand, "revoke-sessions", "--user", email); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Revoked 1 session") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Reset Flow State", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, userCommand, "reset-state", "--user", email); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), string(auth.ResetIdle)) {
			t.Errorf("expected idle state, got %q", output.String())
		}

		if err := run(t, runner, userCommand, "request-reset", "--user", email); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output.Reset()
		if err := run(t, runner, userCommand, "reset-state", "--user", email); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), string(auth.ResetCodeIssued)) {
			t.Errorf("expected code issued state, got %q", output.String())
		}
	})

	t.Run("User List", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, userCommand, "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), email) {
			t.Errorf("expected account in list, got %q", output.String())
		}
		if strings.Contains(output.String(), "password") {
			t.Error("expected password hash to be omitted")
		}
	})
}

func TestDetectCommand(t *testing.T) {
	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"emotion": "surprise", "confidence": 0.8}`))
	}))
	defer classifier.Close()

	config := testConfig(t)
	config.Classifier.URL = classifier.URL
	runner, output := newTestRunner(t, config)

	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.jpg", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("image-bytes"), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	t.Run("Reports Each Image", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, detectCommand, append([]string{"--json"}, paths...)...); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var result tasks.BatchResult
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if result.Total != 3 || result.Successful != 2 || result.Failed != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Results[0].Emotion != "surprised" {
			t.Errorf("expected normalized emotion, got %q", result.Results[0].Emotion)
		}
	})

	t.Run("Plain Output", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, detectCommand, paths[0]); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Success rate: 1/1") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Requires Images", func(t *testing.T) {
		err := run(t, runner, detectCommand)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if err := run(t, runner, detectCommand, filepath.Join(dir, "missing.png")); err == nil {
			t.Error("expected read error")
		}
	})
}
