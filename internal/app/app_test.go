package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetserve/internal/config"
)

func serviceAccountJSON(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test",
		"private_key_id": "abc",
		"private_key":    string(pemKey),
		"client_email":   "svc@test.iam.gserviceaccount.com",
		"client_id":      "1",
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Google.CredentialsBase64 = base64.StdEncoding.EncodeToString(serviceAccountJSON(t))
	cfg.Grist.ServerURL = "https://grist.example.com"
	cfg.Grist.APIKey = "key"
	cfg.Cache.TTL = 15 * time.Second
	cfg.Cache.MaxEntries = 10
	cfg.Fetch.MaxConcurrent = 4
	cfg.Fetch.MaxWait = time.Second
	cfg.Fetch.Timeout = 10 * time.Second
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.Service == nil || a.Limiter == nil || a.Cache == nil {
		t.Fatalf("New() = %+v, want all parts set", a)
	}
	if got := a.Limiter.Status().MaxConcurrent; got != 4 {
		t.Errorf("limiter max = %d, want 4", got)
	}
}

func TestNew_BadCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"not base64", func(c *config.Config) { c.Google.CredentialsBase64 = "%%%" }, "decode google credentials"},
		{"not json", func(c *config.Config) {
			c.Google.CredentialsBase64 = base64.StdEncoding.EncodeToString([]byte("nope"))
		}, "not valid JSON"},
		{"bad grist url", func(c *config.Config) { c.Grist.ServerURL = "ftp://x" }, "grist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := New(context.Background(), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
