package schema

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/objsql/internal/model"
)

// definitions closes the accepted shape of entity files.
const definitions = `
#Property: {
	type?:          string
	ref?:           string
	column?:        string
	primaryKey?:    bool
	autoIncrement?: bool
	nullable?:      bool
	unique?:        bool
	length?:        int & >=0
}

#Index: {
	name?:      string
	properties: [...string] & [_, ...]
	unique?:    bool
}

#Entity: {
	table?:   string
	extends?: string
	properties: [string]: #Property
	indexes?: [...#Index]
}

entity: [string]: #Entity
`

type propertySpec struct {
	Type          string `json:"type"`
	Ref           string `json:"ref"`
	Column        string `json:"column"`
	PrimaryKey    bool   `json:"primaryKey"`
	AutoIncrement bool   `json:"autoIncrement"`
	Nullable      bool   `json:"nullable"`
	Unique        bool   `json:"unique"`
	Length        int    `json:"length"`
}

type indexSpec struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
	Unique     bool     `json:"unique"`
}

// Load reads the CUE package in dir and compiles its entities.
func Load(dir string) (*model.Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, newError(ErrCodeCUE, "cue", token.NoPos, "no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compile(ctx, value)
}

// CompileString compiles entity definitions held in memory. filename is
// used in error positions only.
func CompileString(filename, src string) (*model.Registry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compile(ctx, value)
}

// Compile converts a built CUE value into a registry.
//
// The value must carry a top-level "entity" struct. Referenced entities are
// resolved by name after all entities are declared, so definitions may
// appear in any order.
func Compile(v cue.Value) (*model.Registry, error) {
	return compile(v.Context(), v)
}

type entityDecl struct {
	td    *model.TypeDescriptor
	value cue.Value
}

func compile(ctx *cue.Context, v cue.Value) (*model.Registry, error) {
	defs := ctx.CompileString(definitions, cue.Filename("schema.cue"))
	if err := defs.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = v.Unify(defs)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []entityDecl
	byName := make(map[string]*model.TypeDescriptor)
	tables := make(map[string]string)
	for iter.Next() {
		name := iter.Label()
		ev := iter.Value()
		td := model.NewTypeDescriptor(name, nil)
		if table, ok := optionalString(ev, "table"); ok {
			td.TableName = table
		}
		if other, dup := tables[td.TableName]; dup {
			return nil, newError(ErrCodeDuplicateTable, "entity."+name+".table", ev.Pos(),
				"table %q is already used by %s", td.TableName, other)
		}
		tables[td.TableName] = name
		byName[name] = td
		decls = append(decls, entityDecl{td: td, value: ev})
	}
	if len(decls) == 0 {
		return nil, newError(ErrCodeNoEntities, "entity", v.Pos(), "no entities defined")
	}

	for _, d := range decls {
		if err := resolveBase(d, byName); err != nil {
			return nil, err
		}
	}
	for _, d := range decls {
		if err := checkExtendsCycle(d); err != nil {
			return nil, err
		}
	}
	// Bases first, so redeclared members are caught.
	for _, d := range baseFirst(decls) {
		if err := declareProperties(d, byName); err != nil {
			return nil, err
		}
	}
	for _, d := range decls {
		if err := declareIndexes(d); err != nil {
			return nil, err
		}
	}

	reg := model.NewRegistry()
	for _, d := range decls {
		if err := checkReferencedKeys(d); err != nil {
			return nil, err
		}
		if err := reg.Register(d.td); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func baseFirst(decls []entityDecl) []entityDecl {
	depth := func(td *model.TypeDescriptor) int {
		n := 0
		for t := td.Base; t != nil; t = t.Base {
			n++
		}
		return n
	}
	out := append([]entityDecl(nil), decls...)
	sort.SliceStable(out, func(i, j int) bool { return depth(out[i].td) < depth(out[j].td) })
	return out
}

func resolveBase(d entityDecl, byName map[string]*model.TypeDescriptor) error {
	base, ok := optionalString(d.value, "extends")
	if !ok {
		return nil
	}
	td, found := byName[base]
	if !found {
		return newError(ErrCodeUnknownEntity, "entity."+d.td.Name+".extends", d.value.Pos(),
			"unknown entity %q", base)
	}
	d.td.Base = td
	return nil
}

func checkExtendsCycle(d entityDecl) error {
	seen := map[*model.TypeDescriptor]bool{}
	for t := d.td; t != nil; t = t.Base {
		if seen[t] {
			return newError(ErrCodeExtendsCycle, "entity."+d.td.Name+".extends", d.value.Pos(),
				"base chain of %s loops through %s", d.td.Name, t.Name)
		}
		seen[t] = true
	}
	return nil
}

func declareProperties(d entityDecl, byName map[string]*model.TypeDescriptor) error {
	props := d.value.LookupPath(cue.ParsePath("properties"))
	iter, err := props.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		field := fmt.Sprintf("entity.%s.properties.%s", d.td.Name, name)
		pv := iter.Value()

		var spec propertySpec
		if err := pv.Decode(&spec); err != nil {
			return formatCUEError(err)
		}
		if d.td.Base != nil {
			if _, inherited := d.td.Base.Property(name); inherited {
				return newError(ErrCodeDuplicateMember, field, pv.Pos(),
					"%s is already declared by %s", name, d.td.Base.Name)
			}
		}

		t, cerr := propertyType(spec, byName)
		if cerr != nil {
			cerr.Field, cerr.Pos = field, pv.Pos()
			return cerr
		}
		d.td.AddProperty(model.PropertyDescriptor{
			Name:          name,
			PersistedName: spec.Column,
			Type:          t,
			PrimaryKey:    spec.PrimaryKey,
			AutoIncrement: spec.AutoIncrement,
			Nullable:      spec.Nullable,
			Unique:        spec.Unique,
			Length:        spec.Length,
		})
	}
	if len(d.td.AllProperties()) == 0 {
		return newError(ErrCodeNoProperties, "entity."+d.td.Name, d.value.Pos(), "entity declares no properties")
	}
	return nil
}

func propertyType(spec propertySpec, byName map[string]*model.TypeDescriptor) (model.Type, *CompileError) {
	switch {
	case spec.Type != "" && spec.Ref != "":
		return model.Type{}, &CompileError{Code: ErrCodePropertyType, Message: "type and ref are mutually exclusive"}
	case spec.Ref != "":
		td, ok := byName[spec.Ref]
		if !ok {
			return model.Type{}, &CompileError{Code: ErrCodeUnknownEntity, Message: fmt.Sprintf("unknown entity %q", spec.Ref)}
		}
		return model.EntityType(td), nil
	case spec.Type != "":
		k, ok := model.ParseKind(spec.Type)
		if !ok || k == model.Void || k == model.Object {
			return model.Type{}, &CompileError{Code: ErrCodeUnknownKind, Message: fmt.Sprintf("unknown type %q", spec.Type)}
		}
		return model.Scalar(k), nil
	default:
		return model.Type{}, &CompileError{Code: ErrCodePropertyType, Message: "one of type or ref is required"}
	}
}

func declareIndexes(d entityDecl) error {
	iv := d.value.LookupPath(cue.ParsePath("indexes"))
	if !iv.Exists() {
		return nil
	}
	var specs []indexSpec
	if err := iv.Decode(&specs); err != nil {
		return formatCUEError(err)
	}
	for i, s := range specs {
		for _, p := range s.Properties {
			if _, ok := d.td.Property(p); !ok {
				return newError(ErrCodeUnknownIndexProp, fmt.Sprintf("entity.%s.indexes[%d]", d.td.Name, i), iv.Pos(),
					"unknown property %q", p)
			}
		}
		d.td.Indexes = append(d.td.Indexes, model.IndexDescriptor{
			Name:       s.Name,
			Properties: s.Properties,
			Unique:     s.Unique,
		})
	}
	return nil
}

// checkReferencedKeys rejects object properties whose target has no key to
// flatten into.
func checkReferencedKeys(d entityDecl) error {
	for _, p := range d.td.Properties {
		if ft := p.ForeignType(); ft != nil && len(ft.PrimaryKey()) == 0 {
			return newError(ErrCodeNoKey, fmt.Sprintf("entity.%s.properties.%s", d.td.Name, p.Name), d.value.Pos(),
				"referenced entity %s has no primary key", ft.Name)
		}
	}
	return nil
}

func optionalString(v cue.Value, path string) (string, bool) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", false
	}
	s, err := f.String()
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}
