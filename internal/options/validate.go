package options

import (
	"dslgen/internal/diag"
	"dslgen/internal/types"
)

// Validate checks the generation options of fn before anything is emitted.
// Warnings go to r; the first configuration error is returned.
func Validate(g Generation, fn *types.Func, r diag.Reporter) error {
	if g.Marker == nil {
		return diag.Errorf(diag.CfgMissingMarker, "markerClass is required for %s", fn.QualifiedName())
	}
	if g.Marker.Kind != types.ClassAnnotation {
		return diag.Errorf(diag.CfgMarkerNotAnnotation, "marker %s is not an annotation class", g.Marker.QualifiedName())
	}
	if !g.Marker.DslMarker {
		return diag.Errorf(diag.CfgMarkerNotDslMarker, "marker %s is not annotated with DslMarker", g.Marker.QualifiedName())
	}
	if g.MonoParameter {
		diag.Warn(r, diag.CfgMonoParameterNoop, fn.Loc, "monoParameter is not implemented yet and is ignored")
		if len(fn.AllParams()) > 1 {
			diag.Warn(r, diag.CfgMonoParameterMultiple, fn.Loc, "monoParameter is set but "+fn.QualifiedName()+" has more than one parameter")
		}
	}
	return nil
}
