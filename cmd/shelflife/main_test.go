package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokuthong/ShelfLife-DAM/internal/apitest"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

type cli struct {
	t   *testing.T
	srv *apitest.Server
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := apitest.NewServer(t)
	t.Setenv("SHELFLIFE_ENVIRONMENT", "production")
	t.Setenv("SHELFLIFE_LOGGING_LEVEL", "error")
	t.Setenv("SHELFLIFE_API_BASEURL", srv.URL)
	t.Setenv("SHELFLIFE_STORAGE_DRIVER", "sqlite")
	t.Setenv("SHELFLIFE_STORAGE_PATH", filepath.Join(t.TempDir(), "shelflife.db"))
	return &cli{t: t, srv: srv}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("alice", "password123", models.UserRoleEditor)

	out, _, err := c.run("login", "-u", "alice", "-p", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice (editor)")

	out, _, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@shelflife.test")

	_, _, err = c.run("logout")
	require.NoError(t, err)

	_, errOut, err := c.run("whoami")
	require.Error(t, err)
	assert.Contains(t, errOut, "not signed in")
}

func TestCLI_LoginRejected(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("bob", "correct-horse", models.UserRoleViewer)

	_, errOut, err := c.run("login", "-u", "bob", "-p", "bad")
	require.Error(t, err)
	assert.Contains(t, errOut, "Error: Invalid credentials")
}

func TestCLI_UploadListAndRoleGate(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("ed", "password123", models.UserRoleEditor)
	c.srv.AddUser("vic", "password123", models.UserRoleViewer)

	file := filepath.Join(t.TempDir(), "teapot.obj")
	require.NoError(t, os.WriteFile(file, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o600))

	_, _, err := c.run("login", "-u", "ed", "-p", "password123")
	require.NoError(t, err)
	out, _, err := c.run("assets", "upload", file, "--tags", "kitchen,props")
	require.NoError(t, err)
	assert.Contains(t, out, "teapot.obj: uploaded as")
	assert.Contains(t, out, "(3d)")

	out, _, err = c.run("assets", "list", "--tags", "kitchen")
	require.NoError(t, err)
	assert.Contains(t, out, "teapot")
	assert.Contains(t, out, "1 of 1 assets")

	_, _, err = c.run("login", "-u", "vic", "-p", "password123")
	require.NoError(t, err)
	_, errOut, err := c.run("assets", "upload", file)
	require.Error(t, err)
	assert.Contains(t, errOut, "access denied")
	assert.Equal(t, 1, c.srv.Calls(http.MethodPost, "/assets/assets/"), "the gate stops the request client-side")
}

func TestCLI_ColorModePersists(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("ui", "toggle-color-mode")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, _, err = c.run("ui", "color-mode")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, _, err = c.run("ui", "color-mode", "sepia")
	assert.Error(t, err)
}

func TestCLI_Preview(t *testing.T) {
	c := newCLI(t)
	owner := c.srv.AddUser("ed", "password123", models.UserRoleEditor)
	asset := c.srv.AddAsset(owner, models.Asset{Title: "Tri", File: "tri.obj"}, []byte("v 0 0 0\nv 2 0 0\nv 0 1 0\nf 1 2 3\n"))
	doc := c.srv.AddAsset(owner, models.Asset{Title: "Brief", File: "brief.pdf"}, []byte("%PDF-1.4"))

	_, _, err := c.run("login", "-u", "ed", "-p", "password123")
	require.NoError(t, err)

	out, _, err := c.run("preview", asset.AssetID)
	require.NoError(t, err)
	assert.Contains(t, out, "triangles: 1")
	assert.Contains(t, out, "radius 4.000")

	_, errOut, err := c.run("preview", doc.AssetID)
	require.Error(t, err)
	assert.Contains(t, errOut, "preview needs a 3D model")
}

func TestCLI_UsersRejectSelfTarget(t *testing.T) {
	c := newCLI(t)
	root := c.srv.AddUser("root", "password123", models.UserRoleAdmin)
	vic := c.srv.AddUser("vic", "password123", models.UserRoleViewer)

	_, _, err := c.run("login", "-u", "root", "-p", "password123")
	require.NoError(t, err)

	ownPath := fmt.Sprintf("/auth/users/%d/", root.ID)
	own := strconv.FormatInt(root.ID, 10)

	_, errOut, err := c.run("users", "set-role", own, "viewer")
	require.Error(t, err)
	assert.Contains(t, errOut, "you cannot change your own role")
	assert.Equal(t, 0, c.srv.Calls(http.MethodPut, ownPath))

	_, errOut, err = c.run("users", "delete", own)
	require.Error(t, err)
	assert.Contains(t, errOut, "you cannot delete your own account")
	assert.Equal(t, 0, c.srv.Calls(http.MethodDelete, ownPath))

	out, _, err := c.run("users", "set-role", strconv.FormatInt(vic.ID, 10), "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "vic is now editor")
}
