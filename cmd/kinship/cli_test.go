package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kinship/internal/session"
	"github.com/kittclouds/kinship/pkg/family"
)

// =============================================================================
// HARNESS
// =============================================================================

type testCLI struct {
	t   *testing.T
	dir string
	db  string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Setenv("KINSHIP_LOG_QUIET", "true")
	dir := t.TempDir()
	return &testCLI{t: t, dir: dir, db: filepath.Join(dir, "kinship.db")}
}

func (c *testCLI) run(args ...string) (string, error) {
	c.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data", c.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *testCLI) ok(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "kinship %s", strings.Join(args, " "))
	return out
}

func (c *testCLI) file(name, body string) string {
	c.t.Helper()
	path := filepath.Join(c.dir, name)
	require.NoError(c.t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (c *testCLI) snapshot() family.Snapshot {
	c.t.Helper()
	var s family.Snapshot
	require.NoError(c.t, json.Unmarshal([]byte(c.ok("export")), &s))
	return s
}

func (c *testCLI) record(id string) family.PersonRecord {
	c.t.Helper()
	for _, rec := range c.snapshot().Persons {
		if rec.ID == id {
			return rec
		}
	}
	c.t.Fatalf("person %s not exported", id)
	return family.PersonRecord{}
}

const couple = `{
  "nextId": 3,
  "persons": [
    {"id": "person_1", "firstName": "Ivan", "lastName": "Petrov", "gender": "male", "x": 100, "y": 100, "spouses": ["person_2"]},
    {"id": "person_2", "firstName": "Maria", "lastName": "Petrova", "gender": "female", "x": 400, "y": 300, "spouses": ["person_1"]}
  ]
}`

// =============================================================================
// TESTS
// =============================================================================

func TestImportListExport(t *testing.T) {
	c := newTestCLI(t)

	assert.Contains(t, c.ok("import", c.file("couple.json", couple)), "Imported 2 persons")

	list := c.ok("list")
	assert.Contains(t, list, "Ivan Petrov")
	assert.Contains(t, list, "Maria Petrova")

	out := filepath.Join(c.dir, "out.json")
	c.ok("export", out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, c.ok("export"), string(data))
}

func TestImportMalformedKeepsTree(t *testing.T) {
	c := newTestCLI(t)
	c.ok("import", c.file("couple.json", couple))

	_, err := c.run("import", c.file("bad.json", `{"persons": [{"firstName": "no id"}]}`))
	assert.ErrorIs(t, err, family.ErrMalformedSnapshot)
	assert.Len(t, c.snapshot().Persons, 2)
}

func TestAddRelatives(t *testing.T) {
	c := newTestCLI(t)

	assert.Equal(t, "person_1\n", c.ok("add", "Ivan", "Petrov"))
	assert.Equal(t, "person_2\n", c.ok("add", "Anna", "Petrova", "--gender", "female", "--child-of", "person_1", "--birthday", "1980-02-03"))
	assert.Equal(t, "person_3\n", c.ok("add", "Olga", "Petrova", "--gender", "female", "--sibling-of", "person_2"))
	assert.Equal(t, "person_4\n", c.ok("add", "Sergei", "Ivanov", "--spouse-of", "person_2"))

	anna := c.record("person_2")
	require.NotNil(t, anna.Father)
	assert.Equal(t, "person_1", *anna.Father)
	require.NotNil(t, anna.Birthday)
	assert.Equal(t, "1980-02-03", *anna.Birthday)
	assert.Equal(t, []string{"person_4"}, anna.Spouses)
	ivan := c.record("person_1")
	assert.Equal(t, ivan.X+200, anna.X)
	assert.Equal(t, ivan.Y+150, anna.Y)

	olga := c.record("person_3")
	assert.Equal(t, "female", olga.Gender)
	require.NotNil(t, olga.Father)
	assert.Equal(t, "person_1", *olga.Father)

	assert.Equal(t, "person_5 person_6\n", c.ok("add-parents", "person_1", "--father", "Pyotr Petrov", "--mother", "Vera Petrova"))
	ivan = c.record("person_1")
	require.NotNil(t, ivan.Mother)
	assert.Equal(t, "person_6", *ivan.Mother)

	_, err := c.run("add-parents", "person_1", "--father", "A B", "--mother", "C D")
	assert.ErrorIs(t, err, session.ErrHasBothParents)

	_, err = c.run("add", "X", "Y", "--child-of", "person_1", "--spouse-of", "person_2")
	assert.Error(t, err)

	_, err = c.run("add", "X", "Y", "--sibling-of", "person_6")
	assert.ErrorIs(t, err, session.ErrNoParents)
}

func TestLinkUnlinkDelete(t *testing.T) {
	c := newTestCLI(t)
	c.ok("add", "Ivan", "Petrov")
	c.ok("add", "Anna", "Petrova", "--gender", "female")

	c.ok("link", "child", "person_1", "person_2")
	assert.Equal(t, []string{"person_2"}, c.record("person_1").Children)

	c.ok("unlink", "child", "person_1", "person_2")
	assert.Empty(t, c.record("person_1").Children)

	_, err := c.run("link", "cousin", "person_1", "person_2")
	assert.ErrorIs(t, err, session.ErrInvalidMode)
	_, err = c.run("link", "spouse", "person_1", "person_1")
	assert.ErrorIs(t, err, session.ErrSelfRelation)

	c.ok("link", "spouse", "person_1", "person_2")
	c.ok("delete", "person_2")
	assert.Empty(t, c.record("person_1").Spouses)
	assert.Len(t, c.snapshot().Persons, 1)

	_, err = c.run("delete", "person_2")
	assert.ErrorIs(t, err, session.ErrUnknownPerson)
}

func TestEditAndAttach(t *testing.T) {
	c := newTestCLI(t)
	c.ok("add", "Ivan", "Petrov", "--info", "keep me")

	c.ok("edit", "person_1", "--first", "Ioann", "--deathday", "2001-01-01")
	rec := c.record("person_1")
	assert.Equal(t, "Ioann", rec.FirstName)
	assert.Equal(t, "Petrov", rec.LastName)
	assert.Equal(t, "keep me", rec.Info)
	require.NotNil(t, rec.Deathday)
	assert.Equal(t, "2001-01-01", *rec.Deathday)

	c.ok("attach", "person_1", c.file("notes.txt", "born in Tver"))
	rec = c.record("person_1")
	require.Len(t, rec.Files, 1)
	assert.Equal(t, "notes.txt", rec.Files[0].Name)
	assert.Equal(t, "text/plain", rec.Files[0].Type)
	payload, err := rec.Files[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, "born in Tver", string(payload))

	c.ok("detach", "person_1", "0")
	assert.Empty(t, c.record("person_1").Files)

	_, err = c.run("detach", "person_1", "first")
	assert.Error(t, err)
}

func TestLayoutFocusFind(t *testing.T) {
	c := newTestCLI(t)
	c.ok("import", c.file("couple.json", couple))
	c.ok("add", "Stranger", "Danger")

	c.ok("layout")
	assert.Equal(t, 100.0, c.record("person_2").Y)

	focused := c.ok("focus", "person_1")
	assert.Contains(t, focused, "Maria Petrova")
	assert.NotContains(t, focused, "Stranger")

	found := c.ok("find", "maria petrva", "-k", "1")
	assert.Equal(t, "person_2\tMaria Petrova\n", found)
}

func TestRender(t *testing.T) {
	c := newTestCLI(t)
	c.ok("import", c.file("couple.json", couple))

	svgOut := c.ok("render", "--width", "640", "--height", "480")
	assert.True(t, strings.HasPrefix(svgOut, "<?xml"))
	assert.Contains(t, svgOut, `width="640"`)
	assert.Contains(t, svgOut, "Ivan Petrov")

	path := filepath.Join(c.dir, "tree.svg")
	c.ok("render", path, "--focus", "person_2")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Maria Petrova")
}

func TestLogs(t *testing.T) {
	c := newTestCLI(t)
	c.ok("add", "Ivan", "Petrov")

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.ok("logs")), &entries))
	require.NotEmpty(t, entries)
	assert.Contains(t, c.ok("logs"), "Person created")

	c.ok("logs", "--clear")
	assert.NotContains(t, c.ok("logs"), "Person created")
}

func TestConfigFile(t *testing.T) {
	c := newTestCLI(t)
	cfg := c.file("kinship.yaml", "canvas:\n  width: 320\n  height: 200\n")
	c.ok("add", "Ivan", "Petrov")

	out := c.ok("--config", cfg, "render")
	assert.Contains(t, out, `width="320"`)

	_, err := c.run("--config", c.file("bad.yaml", "canvas:\n  width: -5\n"), "list")
	assert.Error(t, err)
}
