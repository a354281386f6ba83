// Package layout computes C ABI struct layouts from schemas.
//
// # Layout Rules
//
// Members are placed in ascending order. For each member the running offset
// is rounded up to the member's alignment, recorded, and advanced by its
// size. The total is rounded up to the struct alignment, which is the
// largest member alignment (minimum 1). Unions place every member at 0 and
// take the largest member size.
//
//	Type                          Size        Alignment
//	───────────────────────────────────────────────────────
//	bool, i8, u8                  1           1
//	i16, u16                      2           2
//	i32, u32, f32                 4           4
//	i64, u64, f64                 8           8
//	pointer, string, fn           ptr         ptr
//	struct by reference           ptr         ptr
//	T[]  (unbounded)              ptr         ptr
//	T[n] (inline)                 n*size(T)   align(T)
//	inline struct                 its size    its alignment
//	enum<T>                       size(T)     size(T)
//
// ptr is 8 under LP64 and 4 under ILP32.
//
// There is no #pragma pack support. A packed native struct is described
// with explicit padding members.
//
// # Usage
//
//	calc := layout.NewCalculator(layout.LP64)
//	info, err := calc.Calculate(s)
//	// info.Size, info.Align, info.Fields available
package layout
