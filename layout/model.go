package layout

// DataModel fixes the pointer width used for pointer-like slots.
type DataModel struct {
	Name        string
	PointerSize uint32
}

var (
	// LP64 is the 64-bit Unix/macOS model: 8-byte pointers and longs.
	LP64 = DataModel{Name: "LP64", PointerSize: 8}
	// ILP32 is the wasm32 model: 4-byte pointers.
	ILP32 = DataModel{Name: "ILP32", PointerSize: 4}
)

func (m DataModel) String() string {
	return m.Name
}
