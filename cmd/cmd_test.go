package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/illarion/sentinel/internal/keyring"
	"github.com/illarion/sentinel/internal/passgen"
	"github.com/illarion/sentinel/internal/vault"
)

type harness struct {
	t      *testing.T
	root   string
	env    map[string]string
	inputs []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:    t,
		root: filepath.Join(t.TempDir(), "store"),
		env:  map[string]string{},
	}
}

// input queues answers for password and secret prompts
func (h *harness) input(values ...string) *harness {
	h.inputs = append(h.inputs, values...)
	return h
}

func (h *harness) run(args ...string) (stdout, stderr string, err error) {
	h.t.Helper()

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.getenv = func(key string) string { return h.env[key] }
	a.readPassword = func(string) ([]byte, error) {
		if len(h.inputs) == 0 {
			return nil, errors.New("unexpected prompt")
		}
		v := h.inputs[0]
		h.inputs = h.inputs[1:]
		return []byte(v), nil
	}

	root := newRootCmd(a)
	root.SetArgs(append([]string{
		"--root=" + h.root,
		"--keyring=false",
		"--bcrypt-cost=4",
		"--log-level=error",
	}, args...))
	err = root.ExecuteContext(context.Background())
	a.close()
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run(args...)
	require.NoError(h.t, err, "stderr: %s", stderr)
	assert.Empty(h.t, h.inputs, "unused inputs")
	return out
}

func TestVaultLifecycle(t *testing.T) {
	h := newHarness(t)

	out := h.input("pw", "pw").mustRun("vault", "create", "Work")
	assert.Contains(t, out, `Vault "Work" created`)

	out = h.mustRun("vault", "ls")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "Total Entries")

	out = h.input("pw", "s3cret").mustRun("add", "Work", "bob")
	assert.Contains(t, out, "Entry for bob added")

	out = h.input("pw").mustRun("get", "Work", "BO")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "s3cret")

	out = h.input("pw").mustRun("find", "Work", "ob")
	assert.Contains(t, out, "bob")

	out = h.input("pw").mustRun("edit", "Work", "bob", "--username", "robert")
	assert.Contains(t, out, "Entry for bob updated")
	assert.Contains(t, out, "- username:  bob")
	assert.Contains(t, out, "+ username:  robert")
	assert.NotContains(t, out, "s3cret")

	data, err := os.ReadFile(filepath.Join(h.root, "Work.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "robert,s3cret,"))

	out = h.input("pw").mustRun("rm", "Work", "robert")
	assert.Contains(t, out, "Entry for robert deleted")

	out = h.input("pw").mustRun("ls", "Work")
	assert.Contains(t, out, "No entries")

	out = h.input("pw").mustRun("vault", "delete", "Work")
	assert.Contains(t, out, `Vault "Work" removed`)

	out = h.mustRun("vault", "ls")
	assert.Contains(t, out, "No vaults")

	_, err = os.Stat(filepath.Join(h.root, "Work.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.input("pw", "pw").mustRun("vault", "create", "Work")

	_, _, err := h.input("nope").run("ls", "Work")
	require.Error(t, err)
	assert.True(t, errors.Is(err, vault.ErrAuthentication))

	var buf bytes.Buffer
	assert.Equal(t, 1, HandleError(&buf, err))
	assert.Equal(t, "Error: wrong password\n", buf.String())
}

func TestMissingVaultDoesNotPrompt(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("ls", "Nowhere")
	assert.True(t, errors.Is(err, vault.ErrNotFound))
}

func TestEnvPassword(t *testing.T) {
	h := newHarness(t)
	h.env[EnvPassword] = "from-env"

	h.mustRun("vault", "create", "Work")
	out := h.mustRun("add", "Work", "alice", "--generate", "16")
	assert.Contains(t, out, "Generated secret: ")

	delete(h.env, EnvPassword)
	_, _, err := h.input("wrong").run("ls", "Work")
	assert.True(t, errors.Is(err, vault.ErrAuthentication))

	h.input("from-env").mustRun("ls", "Work")
}

func TestCreate_Errors(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.input("one", "two").run("vault", "create", "Work")
	assert.ErrorIs(t, err, errPasswordMismatch)

	h.input("pw", "pw").mustRun("vault", "create", "Work")
	_, _, err = h.input("pw", "pw").run("vault", "create", "WORK")
	assert.True(t, errors.Is(err, vault.ErrDuplicateName))

	_, _, err = h.run("vault", "create", "a,b")
	assert.True(t, errors.Is(err, vault.ErrInvalidName))
}

func TestAdd_Errors(t *testing.T) {
	h := newHarness(t)
	h.env[EnvPassword] = "pw"
	h.mustRun("vault", "create", "Work")
	h.input("x").mustRun("add", "Work", "bob")

	_, _, err := h.input("y").run("add", "Work", "bob")
	assert.True(t, errors.Is(err, vault.ErrDuplicateEntry))

	var buf bytes.Buffer
	HandleError(&buf, err)
	assert.Contains(t, buf.String(), "sentinel edit")

	_, _, err = h.run("add", "Work", "a,b")
	assert.Error(t, err)

	_, _, err = h.input("with,comma").run("add", "Work", "carol")
	assert.Error(t, err)

	_, _, err = h.run("add", "Work", "dave", "--generate", "51")
	assert.True(t, errors.Is(err, passgen.ErrInvalidLength))
}

func TestEdit_Secret(t *testing.T) {
	h := newHarness(t)
	h.env[EnvPassword] = "pw"
	h.mustRun("vault", "create", "Work")
	h.input("old").mustRun("add", "Work", "bob")

	out := h.input("new").mustRun("edit", "Work", "bob", "--secret")
	assert.Contains(t, out, "+ secret:    ******** (changed)")
	assert.NotContains(t, out, "new")

	data, err := os.ReadFile(filepath.Join(h.root, "Work.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "bob,new,"))

	_, _, err = h.run("edit", "Work", "bob", "--secret", "--generate", "5")
	assert.Error(t, err)

	_, _, err = h.run("edit", "Work", "nobody", "--username", "x")
	assert.True(t, errors.Is(err, vault.ErrNotFound))
}

func TestGenerate(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("generate", "20")
	pw := strings.TrimSpace(out)
	assert.Len(t, pw, 20)
	assert.NotContains(t, pw, ",")

	_, _, err := h.run("generate", "0")
	assert.True(t, errors.Is(err, passgen.ErrInvalidLength))

	_, _, err = h.run("generate", "ten")
	assert.True(t, errors.Is(err, passgen.ErrInvalidLength))
}

func TestHistoryAndCompact(t *testing.T) {
	h := newHarness(t)
	h.env[EnvPassword] = "pw"
	h.mustRun("vault", "create", "Work")
	h.mustRun("vault", "create", "Home")
	h.input("top-secret").mustRun("add", "Work", "bob")

	out := h.mustRun("history", "Work")
	assert.Contains(t, out, "vault.created")
	assert.Contains(t, out, "auth.succeeded")
	assert.Contains(t, out, "entry.added")
	assert.NotContains(t, out, "Home")
	assert.NotContains(t, out, "top-secret")

	out = h.mustRun("history")
	assert.Contains(t, out, "Home")

	out = h.mustRun("compact")
	assert.Contains(t, out, "Compacted:")

	out = h.mustRun("history", "Missing")
	assert.Contains(t, out, "No recorded events")
}

func TestAuditDisabled(t *testing.T) {
	h := newHarness(t)
	h.env[EnvPassword] = "pw"
	h.mustRun("--audit=false", "vault", "create", "Work")

	_, err := os.Stat(filepath.Join(h.root, "audit.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestKeyring(t *testing.T) {
	gokeyring.MockInit()
	h := newHarness(t)
	h.input("pw", "pw").mustRun("vault", "create", "Work")

	out := h.mustRun("keyring", "status", "Work")
	assert.Contains(t, out, "not stored")

	_, _, err := h.input("wrong").run("keyring", "save", "Work")
	assert.True(t, errors.Is(err, vault.ErrAuthentication))

	out = h.input("pw").mustRun("keyring", "save", "Work")
	assert.Contains(t, out, "Password saved to keyring")

	// keyring supplies the password, no prompt needed
	h.mustRun("--keyring=true", "ls", "Work")

	// stale keyring password falls through to the prompt
	require.NoError(t, keyring.SavePassword("Work", "stale"))
	h.input("pw").mustRun("--keyring=true", "ls", "Work")

	out = h.mustRun("keyring", "delete", "Work")
	assert.Contains(t, out, "Password removed from keyring")
	out = h.mustRun("keyring", "delete", "Work")
	assert.Contains(t, out, "No password stored in keyring")
}

func TestVaultDelete_RemovesKeyringPassword(t *testing.T) {
	gokeyring.MockInit()
	h := newHarness(t)
	h.input("pw", "pw").mustRun("vault", "create", "Work")
	require.NoError(t, keyring.SavePassword("Work", "pw"))

	out := h.mustRun("--keyring=true", "vault", "delete", "Work")
	assert.Contains(t, out, `Vault "Work" removed`)
	assert.False(t, keyring.HasPassword("Work"))
}

func TestCompletion(t *testing.T) {
	h := newHarness(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out := h.mustRun("completion", shell)
		assert.Contains(t, out, "sentinel", shell)
	}
	_, _, err := h.run("completion", "tcsh")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--hash-scheme=md5", "vault", "ls")
	require.Error(t, err)

	var buf bytes.Buffer
	HandleError(&buf, err)
	assert.Contains(t, buf.String(), "config.yaml")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 bytes", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}
