// Package schemafile reads and writes struct schemas as YAML documents.
//
//	structs:
//	  - name: Vec2
//	    fields:
//	      - {name: x, type: f32}
//	      - {name: y, type: f32}
//	  - name: Sprite
//	    fields:
//	      - {name: pos, type: Vec2}        # inline struct
//	      - {name: name, type: string}     # const char*
//	      - {name: pixels, type: "u8[]"}   # unbounded array
//	      - {name: tint, type: "f32[4]"}   # inline array
//	      - {name: next, type: "*self"}    # pointer to Sprite
//	      - {name: mode, type: "enum<u8>"}
//	      - {name: draw, type: fn}
//
// Field order follows the list unless a field sets order explicitly.
// Primitive names accept the short forms (i32, u8, f64, pointer), common C
// spellings (int32_t, unsigned int, double, void*, const char*) and WIT
// primitive names (s32, char, string).
//
// Structs may appear in any order; they are resolved by dependency. Inline
// and by-reference members must name a struct in the same document, and a
// cycle through struct members other than *self is rejected.
package schemafile
