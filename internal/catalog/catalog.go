package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/querychain/internal/ir"
)

// Catalog is the set of resources declared in a catalog directory.
type Catalog struct {
	Resources []ir.ResourceSpec // sorted by Name
	Files     []string          // CUE files read, sorted
}

// Lookup returns the resource declared under name.
func (c *Catalog) Lookup(name string) (ir.ResourceSpec, bool) {
	for _, r := range c.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return ir.ResourceSpec{}, false
}

// Names returns the declared resource names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Resources))
	for i, r := range c.Resources {
		names[i] = r.Name
	}
	return names
}

// Load compiles every .cue file under dir into a catalog.
//
// Files are compiled one by one and unified, so a resource may be split
// across files. All resource compile errors are collected and returned
// together with errors.Join.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %s is not a directory", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning catalog directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	value := ctx.CompileString("{}")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		fileVal := ctx.CompileBytes(data, cue.Filename(path))
		if err := fileVal.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		value = value.Unify(fileVal)
	}

	cat, err := compileValue(value)
	if cat != nil {
		cat.Files = files
	}
	return cat, err
}

// CompileString compiles catalog source held in memory.
func CompileString(src string) (*Catalog, error) {
	v := cuecontext.New().CompileString(src, cue.Filename("catalog.cue"))
	return compileValue(v)
}

func compileValue(value cue.Value) (*Catalog, error) {
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := value.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	resourcesVal := value.LookupPath(cue.ParsePath("resource"))
	if !resourcesVal.Exists() {
		return nil, &CompileError{Field: "resource", Message: "no resources declared"}
	}

	iter, err := resourcesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cat := &Catalog{}
	var errs []error
	for iter.Next() {
		spec, err := CompileResource(iter.Value())
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) && ce.Resource == "" {
				ce.Resource = iter.Label()
			}
			errs = append(errs, err)
			continue
		}
		cat.Resources = append(cat.Resources, *spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(cat.Resources, func(i, j int) bool {
		return cat.Resources[i].Name < cat.Resources[j].Name
	})
	return cat, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
