package main

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forest6511/securesafe/pkg/vault"
)

// cliHarness runs commands against a vault in a temporary home directory.
type cliHarness struct {
	t      *testing.T
	home   string
	vault  string
	copied []string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	// Cheap Argon2id so tests stay fast.
	t.Setenv("SECURESAFE_KDF_MEMORY", "64")
	t.Setenv("SECURESAFE_KDF_ITERATIONS", "1")
	t.Setenv("SECURESAFE_KDF_PARALLELISM", "1")
	t.Setenv("SECURESAFE_LOG_LEVEL", "error")

	return &cliHarness{t: t, home: home, vault: filepath.Join(home, "vault.json")}
}

func (h *cliHarness) run(input string, args ...string) (stdout, stderr string, err error) {
	h.t.Helper()
	a := newApp()
	a.copyText = func(text string) error {
		h.copied = append(h.copied, text)
		return nil
	}

	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--vault", h.vault}, args...))

	err = root.Execute()
	return out.String(), errOut.String(), err
}

func (h *cliHarness) mustRun(input string, args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(input, args...)
	if err != nil {
		h.t.Fatalf("%v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func TestStoreGetDeleteFlow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("master\nmaster\npw1\n", "store", "example.com", "alice")
	if !strings.Contains(out, "Stored password for alice at example.com") {
		t.Errorf("unexpected store output: %q", out)
	}
	if _, err := os.Stat(h.vault); err != nil {
		t.Fatalf("vault not created: %v", err)
	}

	h.mustRun("master\npw2\n", "store", "example.com", "bob")

	// Two credentials: get must ask for a choice.
	_, errOut, err := h.run("master\n", "get", "example.com")
	if !errors.Is(err, errMultipleFound) {
		t.Fatalf("get without selection: err = %v, want errMultipleFound", err)
	}
	if !strings.Contains(errOut, "[1] alice") || !strings.Contains(errOut, "[2] bob") {
		t.Errorf("expected listing, got %q", errOut)
	}

	if out := h.mustRun("master\n", "get", "example.com", "--user", "bob"); out != "pw2\n" {
		t.Errorf("get --user bob = %q, want %q", out, "pw2\n")
	}

	h.mustRun("master\n", "get", "example.com", "--index", "1", "--copy")
	if len(h.copied) != 1 || h.copied[0] != "pw1" {
		t.Errorf("copied = %v, want [pw1]", h.copied)
	}

	h.mustRun("master\n", "delete", "example.com", "alice")
	if out := h.mustRun("master\n", "get", "example.com"); out != "pw2\n" {
		t.Errorf("get after delete = %q, want %q", out, "pw2\n")
	}

	h.mustRun("master\n", "delete", "example.com", "bob")
	if out := h.mustRun("master\n", "sites"); out != "" {
		t.Errorf("sites after deleting everything = %q, want empty", out)
	}
}

func TestWrongMasterPassword(t *testing.T) {
	h := newHarness(t)
	h.mustRun("Correct\nCorrect\nsecret\n", "store", "example.com", "alice")

	_, _, err := h.run("Wrong\n", "get", "example.com")
	if err == nil {
		t.Fatal("expected error for wrong master password")
	}
	if got := userMessage(err); got != msgAuthFailed {
		t.Errorf("userMessage = %q, want %q", got, msgAuthFailed)
	}

	// --skip-corrupt does not help when nothing decrypts.
	_, _, err = h.run("Wrong\n", "--skip-corrupt", "sites")
	if !errors.Is(err, vault.ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}

	if out := h.mustRun("Correct\n", "get", "example.com"); out != "secret\n" {
		t.Errorf("get with correct password = %q", out)
	}
}

func TestCreateRequiresConfirmation(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("one\ntwo\npw\n", "store", "example.com", "alice")
	if !errors.Is(err, errPasswordMismatch) {
		t.Fatalf("err = %v, want errPasswordMismatch", err)
	}
	if _, err := os.Stat(h.vault); !os.IsNotExist(err) {
		t.Errorf("vault should not exist after mismatch, stat err = %v", err)
	}
}

func TestStoreGenerated(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("master\nmaster\n", "store", "example.com", "alice", "--generate")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected output: %q", out)
	}
	generated := lines[1]
	if len(generated) != 16 {
		t.Errorf("generated length = %d, want 16", len(generated))
	}

	if got := h.mustRun("master\n", "get", "example.com"); got != generated+"\n" {
		t.Errorf("get = %q, want %q", got, generated)
	}
}

func TestStoreRejectsEmptyPassword(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("master\nmaster\n\n", "store", "example.com", "alice")
	if err == nil || !strings.Contains(err.Error(), "password is required") {
		t.Errorf("err = %v, want password is required", err)
	}
}

func TestDeleteAll(t *testing.T) {
	h := newHarness(t)
	h.mustRun("m\nm\np1\n", "store", "a.com", "alice")
	h.mustRun("m\np2\n", "store", "a.com", "alice")
	h.mustRun("m\np3\n", "store", "a.com", "bob")

	_, _, err := h.run("m\n", "delete", "a.com", "alice")
	if !errors.Is(err, errMultipleFound) {
		t.Fatalf("err = %v, want errMultipleFound", err)
	}

	out := h.mustRun("m\n", "delete", "a.com", "alice", "--all")
	if !strings.Contains(out, "Deleted 2 credential(s)") {
		t.Errorf("unexpected output %q", out)
	}
	if got := h.mustRun("m\n", "get", "a.com"); got != "p3\n" {
		t.Errorf("remaining = %q, want p3", got)
	}

	_, _, err = h.run("m\n", "delete", "a.com", "alice", "--all", "--index", "1")
	if err == nil {
		t.Error("expected error for --all with --index")
	}
}

func TestGenerateCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "generate", "-l", "20", "-n", "3", "--no-symbols")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), out)
	}
	for _, l := range lines {
		if len(l) != 20 {
			t.Errorf("password %q has length %d, want 20", l, len(l))
		}
	}
	if _, err := os.Stat(h.vault); !os.IsNotExist(err) {
		t.Error("generate must not create a vault")
	}

	h.mustRun("", "generate", "-c")
	if len(h.copied) != 1 || len(h.copied[0]) != 16 {
		t.Errorf("copied = %v, want one 16-character password", h.copied)
	}
}

func TestGenerateUsesConfigFile(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(h.home, ".securesafe")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	cfg := "generator:\n  length: 9\n  symbols: false\n  numbers: false\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}

	out := strings.TrimSpace(h.mustRun("", "generate"))
	if len(out) != 9 {
		t.Errorf("length = %d, want 9", len(out))
	}
	if strings.ContainsAny(out, "0123456789!@#$%^&*") {
		t.Errorf("password %q should be letters only", out)
	}
}

func TestImportLegacyCommand(t *testing.T) {
	h := newHarness(t)

	seal := func(password string) string {
		key := sha256.Sum256([]byte("old"))
		block, _ := aes.NewCipher(key[:])
		gcm, _ := cipher.NewGCMWithNonceSize(block, 16)
		nonce := make([]byte, 16)
		_, _ = rand.Read(nonce)
		sealed := gcm.Seal(nil, nonce, []byte(password), nil)
		body, tag := sealed[:len(sealed)-16], sealed[len(sealed)-16:]
		raw := append(append(append([]byte{}, nonce...), tag...), body...)
		return base64.StdEncoding.EncodeToString(raw)
	}
	data, err := json.Marshal(map[string]any{
		"site.com": map[string]string{"username": "u", "password": seal("legacy-pw")},
	})
	if err != nil {
		t.Fatal(err)
	}
	legacy := filepath.Join(h.home, "passwords.json")
	if err := os.WriteFile(legacy, data, 0600); err != nil {
		t.Fatal(err)
	}

	out := h.mustRun("old\nnew\nnew\n", "import-legacy", legacy)
	if !strings.Contains(out, "Imported 1 credential(s)") {
		t.Errorf("unexpected output %q", out)
	}
	if got := h.mustRun("new\n", "get", "site.com"); got != "legacy-pw\n" {
		t.Errorf("get = %q, want legacy-pw", got)
	}
}

func TestSelectEntry(t *testing.T) {
	entries := []vault.Entry{{Username: "a", Password: "1"}, {Username: "b", Password: "2"}}

	tests := []struct {
		name    string
		entries []vault.Entry
		index   int
		want    string
		wantErr error
	}{
		{"none", nil, 0, "", errNoEntries},
		{"single", entries[:1], 0, "1", nil},
		{"ambiguous", entries, 0, "", errMultipleFound},
		{"by index", entries, 2, "2", nil},
		{"index too high", entries, 3, "", errIndexRange},
		{"negative index", entries, -1, "", errIndexRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectEntry(tt.entries, tt.index)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got.Password != tt.want {
				t.Errorf("password = %q, want %q", got.Password, tt.want)
			}
		})
	}
}

func TestAuditCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("m\nm\nshort\n", "store", "a.com", "alice")
	h.mustRun("m\nshared-long-password\n", "store", "b.com", "bob")
	h.mustRun("m\nshared-long-password\n", "store", "c.com", "carol")

	out := h.mustRun("m\n", "audit")
	for _, want := range []string{"Credentials: 3", "Score:       0/100", "a.com (alice)", "b.com (bob)", "c.com (carol)"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "shared-long-password") || strings.Contains(out, "short\n") {
		t.Errorf("audit output leaks a password:\n%s", out)
	}

	out = h.mustRun("m\n", "audit", "--json")
	if !strings.Contains(out, `"total": 3`) {
		t.Errorf("unexpected json output:\n%s", out)
	}
}

func TestStoreWarnsOnWeakPassword(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("m\nm\nabc\n", "store", "a.com", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "password strength is Weak") {
		t.Errorf("expected weak password warning, got %q", errOut)
	}
}

func TestImportCommand(t *testing.T) {
	h := newHarness(t)

	export := filepath.Join(h.home, "export.csv")
	csv := "url,username,password,totp,extra,name,grouping,fav\n" +
		"https://github.com,octo,gh-pass,,,GitHub,,0\n" +
		"http://sn,,,,note,Note,,0\n"
	if err := os.WriteFile(export, []byte(csv), 0600); err != nil {
		t.Fatal(err)
	}

	out := h.mustRun("", "import", "--from", "lastpass", "--dry-run", export)
	if !strings.Contains(out, "Would import GitHub (octo)") {
		t.Errorf("dry run output = %q", out)
	}
	if _, err := os.Stat(h.vault); !os.IsNotExist(err) {
		t.Error("dry run must not create a vault")
	}

	_, errOut, err := h.run("m\nm\n", "import", "--from", "lastpass", export)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "Skipped: Note (not a login (secure note))") {
		t.Errorf("expected skipped note in %q", errOut)
	}
	if got := h.mustRun("m\n", "get", "GitHub"); got != "gh-pass\n" {
		t.Errorf("get = %q, want gh-pass", got)
	}

	if _, _, err := h.run("", "import", "--from", "keepass", export); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestSitesPattern(t *testing.T) {
	h := newHarness(t)
	h.mustRun("m\nm\np1\n", "store", "mail.google.com", "a")
	h.mustRun("m\np2\n", "store", "github.com", "a")
	h.mustRun("m\np3\n", "store", "accounts.google.com", "a")

	if out := h.mustRun("m\n", "sites"); out != "accounts.google.com\ngithub.com\nmail.google.com\n" {
		t.Errorf("sites = %q", out)
	}
	if out := h.mustRun("m\n", "sites", "*.google.com"); out != "accounts.google.com\nmail.google.com\n" {
		t.Errorf("sites *.google.com = %q", out)
	}
	if _, _, err := h.run("m\n", "sites", "[bad"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestSkipCorrupt(t *testing.T) {
	h := newHarness(t)
	h.mustRun("m\nm\np1\n", "store", "good.com", "a")
	h.mustRun("m\np2\n", "store", "bad.com", "a")

	// Flip the last byte of bad.com's blob.
	data, err := os.ReadFile(h.vault)
	if err != nil {
		t.Fatal(err)
	}
	var file map[string]json.RawMessage
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatal(err)
	}
	var sites map[string]string
	if err := json.Unmarshal(file["sites"], &sites); err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(sites["bad.com"])
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0x01
	sites["bad.com"] = base64.StdEncoding.EncodeToString(raw)
	if file["sites"], err = json.Marshal(sites); err != nil {
		t.Fatal(err)
	}
	if data, err = json.Marshal(file); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(h.vault, data, 0600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := h.run("m\n", "sites"); !errors.Is(err, vault.ErrCorrupted) {
		t.Fatalf("sites without --skip-corrupt: err = %v, want ErrCorrupted", err)
	}

	out, errOut, err := h.run("m\n", "--skip-corrupt", "sites")
	if err != nil {
		t.Fatalf("sites --skip-corrupt: %v", err)
	}
	if out != "good.com\n" {
		t.Errorf("sites = %q, want good.com only", out)
	}
	if !strings.Contains(errOut, "skipping 1 site(s) that failed to decrypt: bad.com") {
		t.Errorf("expected skip warning, got %q", errOut)
	}

	_, _, err = h.run("m\np3\n", "--skip-corrupt", "store", "bad.com", "b")
	if !errors.Is(err, vault.ErrSiteCorrupted) {
		t.Errorf("store on corrupted site: err = %v, want ErrSiteCorrupted", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "completion", "bash")
	if !strings.Contains(out, "securesafe") {
		t.Errorf("bash completion does not mention the command: %q", out[:min(len(out), 80)])
	}
	if _, _, err := h.run("", "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
	if _, err := os.Stat(h.vault); !os.IsNotExist(err) {
		t.Error("completion must not touch the vault")
	}
}
