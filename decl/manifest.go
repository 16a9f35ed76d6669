package decl

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/cxxbind/errors"
)

// Manifest is the TOML form of a declaration list as handed over by a
// front-end.
type Manifest struct {
	Module string         `toml:"module"`
	Decls  []manifestDecl `toml:"decl"`
}

type manifestDecl struct {
	Exception    *ExceptionSpec  `toml:"exception"`
	Enum         *manifestEnum   `toml:"enum"`
	Kind         string          `toml:"kind"`
	Name         string          `toml:"name"`
	Scope        string          `toml:"scope"`
	Result       string          `toml:"result"`
	Policy       string          `toml:"policy"`
	Module       string          `toml:"module"`
	Target       string          `toml:"target"`
	Access       string          `toml:"access"`
	Params       []manifestParam `toml:"params"`
	Bases        []string        `toml:"bases"`
	TemplateArgs []string        `toml:"template_args"`
	Reduce       []string        `toml:"reduce"`
	Virtual      bool            `toml:"virtual"`
	PureVirtual  bool            `toml:"pure_virtual"`
	Static       bool            `toml:"static"`
	Const        bool            `toml:"const"`
	Abstract     bool            `toml:"abstract"`
	Readonly     bool            `toml:"readonly"`
	Implicit     bool            `toml:"implicit"`
	ReleaseToken bool            `toml:"release_token"`
}

type manifestParam struct {
	Default     any    `toml:"default"`
	Name        string `toml:"name"`
	Type        string `toml:"type"`
	NullDefault bool   `toml:"null_default"`
}

type manifestEnum struct {
	Underlying string      `toml:"underlying"`
	Mode       string      `toml:"mode"`
	Entries    []EnumEntry `toml:"entries"`
	Scoped     bool        `toml:"scoped"`
}

// LoadManifest reads a TOML declaration manifest from path.
func LoadManifest(path string) (*List, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Load("read manifest "+path, err)
	}
	return DecodeManifest(string(data))
}

// DecodeManifest decodes a TOML declaration manifest. It returns the list
// and the manifest's module name.
func DecodeManifest(data string) (*List, string, error) {
	var m Manifest
	if _, err := toml.Decode(data, &m); err != nil {
		return nil, "", errors.Load("decode manifest", err)
	}

	decls := make([]*Declaration, 0, len(m.Decls))
	for i, md := range m.Decls {
		d, err := md.declaration(m.Module)
		if err != nil {
			return nil, "", errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Path("decl", md.Name).
				Detail("entry %d", i).
				Cause(err).
				Build()
		}
		decls = append(decls, d)
	}

	list, err := NewList(decls)
	if err != nil {
		return nil, "", err
	}
	return list, m.Module, nil
}

func (md manifestDecl) declaration(module string) (*Declaration, error) {
	kind, ok := ParseKind(md.Kind)
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("unknown declaration kind %q", md.Kind).
			Build()
	}

	d := &Declaration{
		Kind:         kind,
		Name:         md.Name,
		Scope:        md.Scope,
		Result:       md.Result,
		Policy:       md.Policy,
		Module:       md.Module,
		Target:       md.Target,
		Bases:        md.Bases,
		TemplateArgs: md.TemplateArgs,
		Reduce:       md.Reduce,
		Virtual:      md.Virtual || md.PureVirtual,
		PureVirtual:  md.PureVirtual,
		Static:       md.Static,
		Const:        md.Const,
		Abstract:     md.Abstract,
		Readonly:     md.Readonly,
		Implicit:     md.Implicit,
		ReleaseToken: md.ReleaseToken,
		Exception:    md.Exception,
	}
	if d.Module == "" {
		d.Module = module
	}

	switch md.Access {
	case "", "public":
		d.Access = Public
	case "protected":
		d.Access = Protected
	case "private":
		d.Access = Private
	default:
		return nil, errors.InvalidInput(errors.PhaseLoad, "unknown access "+md.Access)
	}

	for _, mp := range md.Params {
		p := Param{Name: mp.Name, Type: mp.Type}
		if mp.Default != nil || mp.NullDefault {
			p.HasDefault = true
			p.Default = mp.Default
		}
		d.Params = append(d.Params, p)
	}

	if md.Enum != nil {
		d.Enum = &EnumSpec{
			Underlying: md.Enum.Underlying,
			Mode:       md.Enum.Mode,
			Entries:    md.Enum.Entries,
			Scoped:     md.Enum.Scoped,
		}
	}

	return d, nil
}
