package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HB_JWT_SECRET", "adduser-test-secret")
	t.Setenv("HB_SECURITY_BCRYPT_COST", "4")
	return filepath.Join(t.TempDir(), "adduser.db")
}

func TestRun_Success(t *testing.T) {
	dbPath := setup(t)
	stdout := new(bytes.Buffer)

	err := run([]string{"-email", "admin@example.com", "-password", "secret", "-admin", "-db", dbPath},
		new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "User admin@example.com created successfully")
	assert.Contains(t, stdout.String(), "admin=true")
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := setup(t)
	args := []string{"-email", "a@example.com", "-password", "secret", "-db", dbPath}

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)), "first run should succeed")

	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_PasswordFromStdin(t *testing.T) {
	dbPath := setup(t)
	stdout := new(bytes.Buffer)

	err := run([]string{"-email", "b@example.com", "-db", dbPath},
		strings.NewReader("piped-secret\n"), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Password: ")
}

func TestRun_MissingEmail(t *testing.T) {
	stdout := new(bytes.Buffer)
	err := run([]string{}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "Usage: adduser")
}

func TestRun_EmptyPassword(t *testing.T) {
	dbPath := setup(t)
	err := run([]string{"-email", "c@example.com", "-db", dbPath},
		strings.NewReader("   \n"), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}
