package irgen

import "github.com/openSVM/solisp-go/ast"

// primitiveTypeNames maps the symbol spelling a `(: e T)` annotation uses
// for T onto the corresponding source TypeKind, for every primitive.
var primitiveTypeNames = map[string]ast.TypeKind{
	"u8":     ast.TU8,
	"u16":    ast.TU16,
	"u32":    ast.TU32,
	"u64":    ast.TU64,
	"i8":     ast.TI8,
	"i16":    ast.TI16,
	"i32":    ast.TI32,
	"i64":    ast.TI64,
	"f32":    ast.TF32,
	"f64":    ast.TF64,
	"bool":   ast.TBool,
	"unit":   ast.TUnit,
	"pubkey": ast.TPubkey,
	"string": ast.TString,
	"any":    ast.TAny,
	"never":  ast.TNever,
}

// parseSourceType turns a type-annotation form into an ast.Type. Bare
// symbols name primitives or struct types (anything not in
// primitiveTypeNames is assumed a struct name, resolved lazily by the
// bridge/type context); list forms cover the compound shapes (ptr, ref,
// ref-mut, array, tuple, fn, refined).
func parseSourceType(form *ast.Node) (ast.Type, error) {
	if form == nil {
		return ast.Type{}, genError(form, "missing type annotation")
	}

	if form.Kind == ast.NodeSymbol {
		if kind, ok := primitiveTypeNames[form.Sym]; ok {
			return ast.Primitive(kind), nil
		}
		return ast.StructType(form.Sym), nil
	}

	if form.Kind != ast.NodeList {
		return ast.Type{}, genError(form, "malformed type annotation")
	}

	head := form.HeadSymbol()
	args := form.Args()

	switch head {
	case "ptr":
		if len(args) != 1 {
			return ast.Type{}, genError(form, "ptr expects exactly one inner type")
		}
		inner, err := parseSourceType(args[0])
		if err != nil {
			return ast.Type{}, err
		}
		return ast.PtrTo(inner), nil

	case "ref":
		if len(args) != 1 {
			return ast.Type{}, genError(form, "ref expects exactly one inner type")
		}
		inner, err := parseSourceType(args[0])
		if err != nil {
			return ast.Type{}, err
		}
		return ast.RefTo(inner), nil

	case "ref-mut":
		if len(args) != 1 {
			return ast.Type{}, genError(form, "ref-mut expects exactly one inner type")
		}
		inner, err := parseSourceType(args[0])
		if err != nil {
			return ast.Type{}, err
		}
		return ast.RefMutTo(inner), nil

	case "array":
		if len(args) != 2 {
			return ast.Type{}, genError(form, "array expects (array elem-type len)")
		}
		elem, err := parseSourceType(args[0])
		if err != nil {
			return ast.Type{}, err
		}
		n, ok := requireInt(args[1])
		if !ok {
			return ast.Type{}, genError(form, "array length must be an integer literal")
		}
		return ast.ArrayType(elem, int(n)), nil

	case "tuple":
		elems := make([]ast.Type, 0, len(args))
		for _, a := range args {
			t, err := parseSourceType(a)
			if err != nil {
				return ast.Type{}, err
			}
			elems = append(elems, t)
		}
		return ast.TupleType(elems...), nil

	case "fn":
		if len(args) < 1 {
			return ast.Type{}, genError(form, "fn expects (fn (params...) ret)")
		}
		if !args[0].IsList() {
			return ast.Type{}, genError(form, "fn's first argument must be a parameter list")
		}
		params := make([]ast.Type, 0, len(args[0].List))
		for _, p := range args[0].List {
			t, err := parseSourceType(p)
			if err != nil {
				return ast.Type{}, err
			}
			params = append(params, t)
		}
		ret := ast.Primitive(ast.TUnit)
		if len(args) > 1 {
			r, err := parseSourceType(args[1])
			if err != nil {
				return ast.Type{}, err
			}
			ret = r
		}
		return ast.FnType(params, ret), nil

	case "refined":
		if len(args) != 2 {
			return ast.Type{}, genError(form, "refined expects (refined base-type predicate)")
		}
		base, err := parseSourceType(args[0])
		if err != nil {
			return ast.Type{}, err
		}
		pred, ok := requireString(args[1])
		if !ok {
			return ast.Type{}, genError(form, "refined predicate must be a string literal")
		}
		return ast.Refined(base, pred), nil

	default:
		return ast.Type{}, genError(form, "unrecognized type form %q", head)
	}
}
