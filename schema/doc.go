// Package schema describes C structs and unions declaratively.
//
// A schema is a set of named fields, each tagged with an explicit order that
// fixes its position in the C declaration:
//
//	point := schema.MustNew("SDL_Point", schema.Fields{
//		"x": schema.Int32(0),
//		"y": schema.Int32(1),
//	})
//
//	node := schema.MustNew("Node", schema.Fields{
//		"value": schema.Int32(0),
//		"pos":   schema.Inline(1, point),
//		"next":  schema.SelfRef(2),
//		"tag":   schema.Array(3, schema.U8, 16),
//	})
//
// Validation happens when the schema is built: order values must be a
// permutation of 0..n-1, fixed arrays need a positive length and a struct may
// only refer to itself through a pointer. Schemas are immutable once built, so
// an inline cycle cannot be formed except through Self, which is rejected.
package schema
