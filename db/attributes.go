package db

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
	"gopkg.in/yaml.v2"
)

const attributesFile = "attributes"

// Attributes is the YAML side file holding the attributes of one
// directory.  Nothing is cached: every call reads or rewrites the
// file, so two handles on the same directory always agree.
type Attributes struct {
	dir *Directory
}

func (a *Attributes) path() string {
	return filepath.Join(a.dir.Path, attributesFile)
}

func (a *Attributes) load() (m map[string]interface{}, err error) {
	err = a.dir.usable()
	if err != nil {
		return
	}
	m = make(map[string]interface{})
	buf, err := ioutil.ReadFile(a.path())
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(buf, &m)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", a.path())
	}
	return
}

func (a *Attributes) flush(m map[string]interface{}) (err error) {
	err = a.dir.ensure()
	if err != nil {
		return
	}
	buf, err := yaml.Marshal(m)
	if err != nil {
		return
	}
	return renameio.WriteFile(a.path(), buf, 0644)
}

// update applies fn to the current attributes and writes the result
// back in one atomic replace.
func (a *Attributes) update(fn func(m map[string]interface{})) (err error) {
	err = a.dir.writable()
	if err != nil {
		return
	}
	m, err := a.load()
	if err != nil {
		return
	}
	fn(m)
	return a.flush(m)
}

func (a *Attributes) Has(key string) bool {
	m, err := a.load()
	if err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

// Keys returns the attribute names in lexical order.
func (a *Attributes) Keys() (keys []string, err error) {
	m, err := a.load()
	if err != nil {
		return
	}
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

func (a *Attributes) Count() (int, error) {
	m, err := a.load()
	return len(m), err
}

// Set stores val under key.  val is one of string, []string,
// float64, []float64, int or []int.
func (a *Attributes) Set(key string, val interface{}) error {
	return a.SetAll(map[string]interface{}{key: val})
}

func (a *Attributes) SetAll(kv map[string]interface{}) error {
	log.WithFields(log.Fields{"dir": a.dir.Path, "attrs": kv}).Debug("set attributes")
	return a.update(func(m map[string]interface{}) {
		for k, v := range kv {
			m[k] = v
		}
	})
}

func (a *Attributes) Remove(key string) error {
	return a.update(func(m map[string]interface{}) {
		delete(m, key)
	})
}

func (a *Attributes) get(key string) (val interface{}, ok bool, err error) {
	m, err := a.load()
	if err != nil {
		return
	}
	val, ok = m[key]
	return
}

func (a *Attributes) badType(key string, val interface{}, want string) error {
	return errors.Wrapf(nix.ErrIllegalState, "attribute %q in %s: want %s, got %T", key, a.dir.Path, want, val)
}

func (a *Attributes) GetString(key string) (s string, ok bool, err error) {
	val, ok, err := a.get(key)
	if err != nil || !ok {
		return
	}
	s, isString := val.(string)
	if !isString {
		return "", false, a.badType(key, val, "string")
	}
	return
}

func (a *Attributes) GetStrings(key string) (ss []string, ok bool, err error) {
	val, ok, err := a.get(key)
	if err != nil || !ok {
		return
	}
	list, isList := val.([]interface{})
	if !isList {
		return nil, false, a.badType(key, val, "string list")
	}
	ss = make([]string, len(list))
	for i, v := range list {
		s, isString := v.(string)
		if !isString {
			return nil, false, a.badType(key, v, "string")
		}
		ss[i] = s
	}
	return
}

func asFloat(v interface{}) (f float64, ok bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

func asInt(v interface{}) (i int, ok bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	}
	return 0, false
}

func (a *Attributes) GetDouble(key string) (f float64, ok bool, err error) {
	val, ok, err := a.get(key)
	if err != nil || !ok {
		return
	}
	f, isNum := asFloat(val)
	if !isNum {
		return 0, false, a.badType(key, val, "double")
	}
	return
}

func (a *Attributes) GetDoubles(key string) (fs []float64, ok bool, err error) {
	val, ok, err := a.get(key)
	if err != nil || !ok {
		return
	}
	list, isList := val.([]interface{})
	if !isList {
		return nil, false, a.badType(key, val, "double list")
	}
	fs = make([]float64, len(list))
	for i, v := range list {
		f, isNum := asFloat(v)
		if !isNum {
			return nil, false, a.badType(key, v, "double")
		}
		fs[i] = f
	}
	return
}

func (a *Attributes) GetInt(key string) (n int, ok bool, err error) {
	val, ok, err := a.get(key)
	if err != nil || !ok {
		return
	}
	n, isInt := asInt(val)
	if !isInt {
		return 0, false, a.badType(key, val, "integer")
	}
	return
}

func (a *Attributes) GetInts(key string) (ns []int, ok bool, err error) {
	val, ok, err := a.get(key)
	if err != nil || !ok {
		return
	}
	list, isList := val.([]interface{})
	if !isList {
		return nil, false, a.badType(key, val, "integer list")
	}
	ns = make([]int, len(list))
	for i, v := range list {
		n, isInt := asInt(v)
		if !isInt {
			return nil, false, a.badType(key, v, "integer")
		}
		ns[i] = n
	}
	return
}

func (a *Attributes) GetTime(key string) (t time.Time, ok bool, err error) {
	s, ok, err := a.GetString(key)
	if err != nil || !ok {
		return
	}
	t, err = parseTime(s)
	if err != nil {
		return t, false, errors.Wrapf(nix.ErrIllegalState, "attribute %q in %s: %v", key, a.dir.Path, err)
	}
	return
}

func (a *Attributes) SetTime(key string, t time.Time) error {
	return a.Set(key, formatTime(t))
}
