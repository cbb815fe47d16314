package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
	"github.com/t7a/nixbase/db"
)

func init() {
	var debug string
	debug = os.Getenv("DEBUG")
	if debug == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number gid N`.
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d gid %d", strings.TrimPrefix(f.File, p), f.Line, db.GetGID())
	}
}

type Opts struct {
	Init      bool
	Info      bool
	Mkblock   bool
	Rmblock   bool
	Mksource  bool
	Mkgroup   bool
	Mksection bool
	Rmsection bool
	Setprop   bool
	Props     bool
	Link      bool
	Tree      bool
	Watch     bool
	File      string `docopt:"-f"`
	Parent    string `docopt:"-p"`
	Name      string
	Type      string
	Block     string
	Section   string
	Target    string
	Value     []string
}

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `nixbase

Usage:
  nb [-f <dir>] init
  nb [-f <dir>] info
  nb [-f <dir>] mkblock <name> <type>
  nb [-f <dir>] rmblock <name>
  nb [-f <dir>] mksource <block> <name> <type>
  nb [-f <dir>] mkgroup <block> <name> <type>
  nb [-f <dir>] mksection [-p <parent>] <name> <type>
  nb [-f <dir>] rmsection <name>
  nb [-f <dir>] setprop <section> <name> <value>...
  nb [-f <dir>] props <section>
  nb [-f <dir>] link <section> <target>
  nb [-f <dir>] tree
  nb [-f <dir>] watch

Options:
  -h --help     Show this screen.
  --version     Show version.
  -f <dir>      File directory, else $NIXFILE, else the current directory.
  -p <parent>   Parent section, by name or id.
`
	parser := &docopt.Parser{HelpHandler: docopt.PrintHelpOnly}
	o, err := parser.ParseArgs(usage, os.Args[1:], "0.0")
	if err != nil {
		return 64
	}
	var opts Opts
	err = o.Bind(&opts)
	if err != nil {
		log.Error(err)
		return 22
	}
	log.Debug(opts)
	path := filedir(opts.File)

	switch true {
	case opts.Init:
		err = create(path)
		if err == nil {
			fmt.Printf("Initialized empty NIX file in %s\n", path)
		}
	case opts.Info:
		err = withFile(path, nix.ReadOnly, info)
	case opts.Mkblock:
		err = withFile(path, nix.ReadWrite, func(f *db.File) error {
			_, err := f.CreateBlock(opts.Name, opts.Type)
			return err
		})
	case opts.Rmblock:
		err = withFile(path, nix.ReadWrite, func(f *db.File) error {
			return mustDelete(f.DeleteBlock(opts.Name))
		})
	case opts.Mksource:
		err = withFile(path, nix.ReadWrite, func(f *db.File) (err error) {
			b, err := f.GetBlock(opts.Block)
			if err != nil {
				return
			}
			_, err = b.CreateSource(opts.Name, opts.Type)
			return
		})
	case opts.Mkgroup:
		err = withFile(path, nix.ReadWrite, func(f *db.File) (err error) {
			b, err := f.GetBlock(opts.Block)
			if err != nil {
				return
			}
			_, err = b.CreateGroup(opts.Name, opts.Type)
			return
		})
	case opts.Mksection:
		err = withFile(path, nix.ReadWrite, func(f *db.File) (err error) {
			if opts.Parent == "" {
				_, err = f.CreateSection(opts.Name, opts.Type)
				return
			}
			parent, err := findSection(f, opts.Parent)
			if err != nil {
				return
			}
			_, err = parent.CreateSection(opts.Name, opts.Type)
			return
		})
	case opts.Rmsection:
		err = withFile(path, nix.ReadWrite, func(f *db.File) error {
			return rmSection(f, opts.Name)
		})
	case opts.Setprop:
		err = withFile(path, nix.ReadWrite, func(f *db.File) error {
			return setProp(f, opts.Section, opts.Name, opts.Value)
		})
	case opts.Props:
		err = withFile(path, nix.ReadOnly, func(f *db.File) error {
			return props(f, opts.Section)
		})
	case opts.Link:
		err = withFile(path, nix.ReadWrite, func(f *db.File) error {
			return link(f, opts.Section, opts.Target)
		})
	case opts.Tree:
		err = withFile(path, nix.ReadOnly, tree)
	case opts.Watch:
		err = withFile(path, nix.ReadOnly, watch)
	}
	if err != nil {
		log.Error(err)
		return 42
	}
	return 0
}

// filedir picks the file directory from -f, then NIXFILE, then the
// working directory.
func filedir(opt string) (dir string) {
	if opt != "" {
		return opt
	}
	dir = os.Getenv("NIXFILE")
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			panic("can't get current directory")
		}
	}
	return
}

func create(path string) (err error) {
	f, err := db.OpenFile(path, nix.ReadWrite)
	if err != nil {
		return
	}
	return f.Close()
}

// withFile runs fn against an existing file.  Writable opens would
// create a missing file, so that case is refused up front.
func withFile(path string, mode nix.FileMode, fn func(*db.File) error) (err error) {
	_, err = os.Stat(filepath.Join(path, "attributes"))
	if os.IsNotExist(err) {
		return errors.Wrapf(nix.ErrNotFound, "no file at %s, run nb init", path)
	}
	f, err := db.OpenFile(path, mode)
	if err != nil {
		return
	}
	defer f.Close()
	return fn(f)
}

func mustDelete(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return nix.ErrNotFound
	}
	return nil
}

func info(f *db.File) (err error) {
	format, err := f.Format()
	if err != nil {
		return
	}
	version, err := f.Version()
	if err != nil {
		return
	}
	blocks, err := f.BlockCount()
	if err != nil {
		return
	}
	sections, err := f.SectionCount()
	if err != nil {
		return
	}
	var parts []string
	for _, n := range version {
		parts = append(parts, strconv.Itoa(n))
	}
	fmt.Printf("format: %s\n", format)
	fmt.Printf("version: %s\n", strings.Join(parts, "."))
	fmt.Printf("blocks: %d\n", blocks)
	fmt.Printf("sections: %d\n", sections)
	return
}

// findSection resolves an id anywhere in the metadata tree, or the
// first section with a matching name, depth first.
func findSection(f *db.File, nameOrID string) (sec nix.ISection, err error) {
	if nix.LooksLikeID(nameOrID) {
		return f.FindSection(nameOrID)
	}
	found, err := f.FindSections(func(s nix.ISection) bool {
		name, _ := s.Name()
		return name == nameOrID
	}, -1)
	if err != nil {
		return
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(nix.ErrNotFound, "section %q", nameOrID)
	}
	return found[0], nil
}

func rmSection(f *db.File, nameOrID string) (err error) {
	sec, err := findSection(f, nameOrID)
	if err != nil {
		return
	}
	id, err := sec.ID()
	if err != nil {
		return
	}
	parent, err := sec.Parent()
	if err != nil {
		return
	}
	if parent == nil {
		return mustDelete(f.DeleteSection(id))
	}
	return mustDelete(parent.DeleteSection(id))
}

// parseValue picks the narrowest of bool, int, double and string that
// s parses as.
func parseValue(s string) nix.Value {
	if s == "true" || s == "false" {
		return nix.MustValue(s == "true")
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return nix.MustValue(i)
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return nix.MustValue(x)
	}
	return nix.MustValue(s)
}

func setProp(f *db.File, section, name string, args []string) (err error) {
	sec, err := findSection(f, section)
	if err != nil {
		return
	}
	var values []nix.Value
	for _, arg := range args {
		values = append(values, parseValue(arg))
	}
	if !sec.HasProperty(name) {
		_, err = sec.CreatePropertyWithValues(name, values)
		return
	}
	p, err := sec.GetProperty(name)
	if err != nil {
		return
	}
	return p.SetValues(values)
}

func formatProperty(p nix.IProperty) (line string, err error) {
	name, err := p.Name()
	if err != nil {
		return
	}
	values, err := p.Values()
	if err != nil {
		return
	}
	unit, err := p.Unit()
	if err != nil {
		return
	}
	var strs []string
	for _, v := range values {
		strs = append(strs, v.Str())
	}
	line = fmt.Sprintf("%s = %s", name, strings.Join(strs, " "))
	if unit != nil {
		line += " " + *unit
	}
	return
}

func props(f *db.File, section string) (err error) {
	sec, err := findSection(f, section)
	if err != nil {
		return
	}
	all, err := sec.InheritedProperties()
	if err != nil {
		return
	}
	var lines []string
	for _, p := range all {
		line, err := formatProperty(p)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Println(line)
	}
	return
}

func link(f *db.File, section, target string) (err error) {
	sec, err := findSection(f, section)
	if err != nil {
		return
	}
	to, err := findSection(f, target)
	if err != nil {
		return
	}
	id, err := to.ID()
	if err != nil {
		return
	}
	return sec.SetLink(id)
}

func label(e nix.INamedEntity) string {
	name, _ := e.Name()
	typ, _ := e.Type()
	return fmt.Sprintf("%s (%s)", name, typ)
}

func printf(depth int, format string, args ...interface{}) {
	fmt.Print(strings.Repeat("  ", depth))
	fmt.Printf(format+"\n", args...)
}

func tree(f *db.File) (err error) {
	n, err := f.BlockCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		b, err := f.GetBlockAt(i)
		if err != nil {
			return err
		}
		err = printBlock(b)
		if err != nil {
			return err
		}
	}
	n, err = f.SectionCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		sec, err := f.GetSectionAt(i)
		if err != nil {
			return err
		}
		err = printSection(sec, 0)
		if err != nil {
			return err
		}
	}
	return
}

func printBlock(b nix.IBlock) (err error) {
	printf(0, "block %s", label(b))
	err = printSources(b, 1)
	if err != nil {
		return
	}
	n, err := b.DataArrayCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		da, err := b.GetDataArrayAt(i)
		if err != nil {
			return err
		}
		dtype, err := da.DataType()
		if err != nil {
			return err
		}
		extent, err := da.DataExtent()
		if err != nil {
			return err
		}
		printf(1, "data_array %s %v %v", label(da), dtype, extent)
	}
	n, err = b.TagCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		tag, err := b.GetTagAt(i)
		if err != nil {
			return err
		}
		printf(1, "tag %s", label(tag))
	}
	n, err = b.MultiTagCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		mt, err := b.GetMultiTagAt(i)
		if err != nil {
			return err
		}
		printf(1, "multi_tag %s", label(mt))
	}
	n, err = b.GroupCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		g, err := b.GetGroupAt(i)
		if err != nil {
			return err
		}
		printf(1, "group %s", label(g))
	}
	return
}

func printSources(c nix.ISourceContainer, depth int) (err error) {
	n, err := c.SourceCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		src, err := c.GetSourceAt(i)
		if err != nil {
			return err
		}
		printf(depth, "source %s", label(src))
		err = printSources(src, depth+1)
		if err != nil {
			return err
		}
	}
	return
}

func printSection(sec nix.ISection, depth int) (err error) {
	printf(depth, "section %s", label(sec))
	n, err := sec.PropertyCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		p, err := sec.GetPropertyAt(i)
		if err != nil {
			return err
		}
		line, err := formatProperty(p)
		if err != nil {
			return err
		}
		printf(depth+1, "property %s", line)
	}
	n, err = sec.SectionCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		child, err := sec.GetSectionAt(i)
		if err != nil {
			return err
		}
		err = printSection(child, depth+1)
		if err != nil {
			return err
		}
	}
	return
}

// watch prints change events until interrupted.
func watch(f *db.File) (err error) {
	w, err := db.NewWatcher(f)
	if err != nil {
		return
	}
	defer w.Close()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			fmt.Printf("%s %s %s\n", ev.Op, ev.Collection, ev.Path)
		case werr := <-w.Errors:
			log.Warn(werr)
		case <-sig:
			return nil
		}
	}
}
