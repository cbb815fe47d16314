package db

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/stevegt/goadapt"
	nix "github.com/t7a/nixbase"
)

const testFileDirPrefix = "nixbase"

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func tmpdir(t *testing.T) (dir string) {
	debug := os.Getenv("DEBUG")
	if debug == "1" {
		var err error
		dir, err = ioutil.TempDir("", testFileDirPrefix)
		Ck(err)
		fmt.Println(dir)
		// no cleanup
	} else {
		dir = t.TempDir()
		// automatically cleaned up
	}
	return
}

func setup(t *testing.T) *File {
	dir := tmpdir(t)
	file, err := OpenFile(filepath.Join(dir, "file"), nix.ReadWrite)
	Ck(err)
	tassert(t, file != nil, "file is nil")
	return file
}

// clock pins now() to t until the test ends.
func clock(t *testing.T, at time.Time) {
	now = func() time.Time { return at }
	t.Cleanup(func() { now = time.Now })
}

var t0 = time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)

func mkblock(t *testing.T, f *File, name string) *Block {
	t.Helper()
	b, err := f.CreateBlock(name, "recording")
	tassert(t, err == nil, "%v", err)
	return b.(*Block)
}

func mkarray(t *testing.T, b *Block, name string, dtype nix.DataType, extent ...int) *DataArray {
	t.Helper()
	da, err := b.CreateDataArray(name, "signal", dtype, extent)
	tassert(t, err == nil, "%v", err)
	return da.(*DataArray)
}

func id(t *testing.T, e nix.IEntity) string {
	t.Helper()
	s, err := e.ID()
	tassert(t, err == nil, "%v", err)
	return s
}

func TestGetGID(t *testing.T) {
	n := GetGID()
	if n == 0 {
		t.Fatalf("oh no n is 0")
	}
}

func TestMkdir(t *testing.T) {
	dir := tmpdir(t)
	fn := filepath.Join(dir, "plain")
	err := ioutil.WriteFile(fn, nil, 0644)
	tassert(t, err == nil, "%v", err)
	err = mkdir(filepath.Join(fn, "sub"))
	if err == nil {
		t.Fatal("expected error, got none")
	}
}

func TestTimeFormat(t *testing.T) {
	s := formatTime(t0.In(time.FixedZone("X", 3600)))
	tassert(t, s == "20200301T120000", "got %q", s)
	got, err := parseTime(s)
	tassert(t, err == nil, "%v", err)
	tassert(t, got.Equal(t0), "got %v", got)
}
