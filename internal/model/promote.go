package model

// Promote returns the kind both operands of an arithmetic operator are
// widened to before the operator is applied.
//
// The ladder, first match wins:
//
//	string > decimal > float64 > float32 > int64 >
//	uint32 (both uint32, else int64) > int32 >
//	uint16 (both uint16, else int32) > int16 >
//	uint8 (both uint8, else int32) > int8 (int32)
//
// ok is false when neither operand is on the ladder (uint64, bool, uuid,
// time, entities).
func Promote(left, right Kind) (Kind, bool) {
	either := func(k Kind) bool { return left == k || right == k }
	both := func(k Kind) bool { return left == k && right == k }

	switch {
	case either(String):
		return String, true
	case either(Decimal):
		return Decimal, true
	case either(Float64):
		return Float64, true
	case either(Float32):
		return Float32, true
	case either(Int64):
		return Int64, true
	case either(Uint32):
		if both(Uint32) {
			return Uint32, true
		}
		return Int64, true
	case either(Int32):
		return Int32, true
	case either(Uint16):
		if both(Uint16) {
			return Uint16, true
		}
		return Int32, true
	case either(Int16):
		return Int16, true
	case either(Uint8):
		// Mixed with a signed byte the result is int32, not uint8.
		if both(Uint8) {
			return Uint8, true
		}
		return Int32, true
	case either(Int8):
		return Int32, true
	}
	return Invalid, false
}
