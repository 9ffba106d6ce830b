package typelower

import (
	"fmt"
	"strings"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// GetType interns the target type of a source type. Arrays, slices and
// tuples are named with the same grammar as ILName; ADTs and closures
// become value classes; pointers to unsized types become fat pointers.
func GetType(asm *cil.Assembly, tcx mir.TyCtxt, ty mir.Ty) cil.TypeIdx {
	switch t := tcx.Monomorphize(ty).(type) {
	case mir.Int:
		return asm.IntType(IntKind(t.Width, true))
	case mir.Uint:
		return asm.IntType(IntKind(t.Width, false))
	case mir.Float:
		return asm.AllocType(cil.TFloat{Kind: FloatKind(t.Width)})
	case mir.Bool:
		return asm.AllocType(cil.TBool{})
	case mir.Char:
		return asm.IntType(cil.U32)
	case mir.Never:
		return asm.Void()
	case mir.Tuple:
		if len(t.Elems) == 0 {
			return asm.Void()
		}
		if len(t.Elems) > MaxTupleArity {
			cil.Unsupported("tuple of %d elements", len(t.Elems))
		}
		names := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			names[i] = ClassName(asm, GetType(asm, tcx, e))
		}
		return asm.AllocType(cil.TClassRef{
			Assembly:  "System.Runtime",
			Name:      fmt.Sprintf("System.ValueTuple`%d<%s>", len(t.Elems), strings.Join(names, ",")),
			Valuetype: true,
		})
	case mir.Array:
		elem := ClassName(asm, GetType(asm, tcx, t.Elem))
		return asm.ValueClass(fmt.Sprintf("RArray_%s_%d", strings.ReplaceAll(elem, "'", ""), t.Len))
	case mir.Slice:
		elem := ClassName(asm, GetType(asm, tcx, t.Elem))
		return asm.ValueClass("RSlice_" + strings.ReplaceAll(elem, "'", ""))
	case mir.Str:
		return asm.ValueClass("RStr")
	case mir.Dynamic:
		return asm.ValueClass("Dyn" + t.Trait)
	case mir.Adt:
		return asm.ValueClass(t.String())
	case mir.Closure:
		return asm.ValueClass("Closure_" + t.Name)
	case mir.FnPtr:
		return asm.PtrTo(asm.Void())
	case mir.Ref:
		return pointerType(asm, tcx, t.Pointee)
	case mir.RawPtr:
		return pointerType(asm, tcx, t.Pointee)
	case mir.Param:
		cil.Unsupported("unresolved generic parameter %s", t.Name)
	case mir.Foreign:
		cil.Unsupported("foreign type %s", t.Name)
	default:
		cil.Unsupported("type %v", ty)
	}
	panic("unreachable")
}

func pointerType(asm *cil.Assembly, tcx mir.TyCtxt, pointee mir.Ty) cil.TypeIdx {
	if tcx.IsFat(pointee) {
		return asm.FatPtr(ClassName(asm, GetType(asm, tcx, pointee)))
	}
	return asm.PtrTo(GetType(asm, tcx, pointee))
}

// ClassName returns the name of a type without its valuetype or class
// prefix, as embedded in the names of composite types
func ClassName(asm *cil.Assembly, t cil.TypeIdx) string {
	name := asm.TypeName(t)
	name = strings.TrimPrefix(name, "valuetype ")
	return strings.TrimPrefix(name, "class ")
}

// FatPtrFields returns the two fields of the fat pointer to pointee:
// the data pointer and the metadata word.
func FatPtrFields(asm *cil.Assembly, tcx mir.TyCtxt, pointee mir.Ty) (data, meta cil.FieldDesc) {
	owner := pointerType(asm, tcx, pointee)
	if _, ok := asm.Type(owner).(cil.TClassRef); !ok {
		panic(fmt.Sprintf("%s is not a fat pointee", pointee))
	}
	var elem cil.TypeIdx
	switch t := tcx.Monomorphize(pointee).(type) {
	case mir.Slice:
		elem = GetType(asm, tcx, t.Elem)
	case mir.Str:
		elem = asm.IntType(cil.U8)
	default:
		elem = asm.Void()
	}
	data = cil.FieldDesc{Owner: owner, Name: cil.DataPointer, Type: asm.PtrTo(elem)}
	meta = cil.FieldDesc{Owner: owner, Name: cil.Metadata, Type: asm.IntType(cil.USize)}
	return data, meta
}
