package runtime

// Symbols returns the extern symbol table the execution engine resolves
// emitted calls against. Each entry takes boxed arguments (int64, float64,
// bool, string, *Value handles, or callback closures) positionally.
//
// The map is rebuilt per call so callers may mutate their copy.
func Symbols() map[string]func(args []any) any {
	return map[string]func(args []any) any{
		// Tagged-value constructors and ownership.
		"from_int":    func(a []any) any { return FromInt(a[0].(int64)) },
		"from_float":  func(a []any) any { return FromFloat(a[0].(float64)) },
		"from_bool":   func(a []any) any { return FromBool(a[0].(bool)) },
		"from_string": func(a []any) any { return FromString(str(a[0])) },
		"none":        func(a []any) any { return None() },
		"free":        func(a []any) any { Free(val(a[0])); return nil },
		"clone":       func(a []any) any { return Clone(val(a[0])) },

		// Unboxing.
		"to_int":    func(a []any) any { return ToInt(val(a[0])) },
		"to_float":  func(a []any) any { return ToFloat(val(a[0])) },
		"to_bool":   func(a []any) any { return ToBool(val(a[0])) },
		"to_string": func(a []any) any { return ToString(val(a[0])) },

		// Arithmetic.
		"add":       func(a []any) any { return Add(val(a[0]), val(a[1])) },
		"subtract":  func(a []any) any { return Subtract(val(a[0]), val(a[1])) },
		"multiply":  func(a []any) any { return Multiply(val(a[0]), val(a[1])) },
		"divide":    func(a []any) any { return Divide(val(a[0]), val(a[1])) },
		"floor_div": func(a []any) any { return FloorDiv(val(a[0]), val(a[1])) },
		"modulo":    func(a []any) any { return Modulo(val(a[0]), val(a[1])) },
		"power":     func(a []any) any { return Power(val(a[0]), val(a[1])) },
		"negate":    func(a []any) any { return Negate(val(a[0])) },

		// Comparison.
		"equals":        func(a []any) any { return Equals(val(a[0]), val(a[1])) },
		"not_equals":    func(a []any) any { return NotEquals(val(a[0]), val(a[1])) },
		"less_than":     func(a []any) any { return LessThan(val(a[0]), val(a[1])) },
		"less_equal":    func(a []any) any { return LessEqual(val(a[0]), val(a[1])) },
		"greater_than":  func(a []any) any { return GreaterThan(val(a[0]), val(a[1])) },
		"greater_equal": func(a []any) any { return GreaterEqual(val(a[0]), val(a[1])) },

		// Bitwise and shifts.
		"bit_and":     func(a []any) any { return BitAnd(val(a[0]), val(a[1])) },
		"bit_or":      func(a []any) any { return BitOr(val(a[0]), val(a[1])) },
		"bit_xor":     func(a []any) any { return BitXor(val(a[0]), val(a[1])) },
		"bit_not":     func(a []any) any { return BitNot(val(a[0])) },
		"shift_left":  func(a []any) any { return ShiftLeft(val(a[0]), val(a[1])) },
		"shift_right": func(a []any) any { return ShiftRight(val(a[0]), val(a[1])) },

		// Short-circuit selection and logical not.
		"and": func(a []any) any { return And(val(a[0]), val(a[1])) },
		"or":  func(a []any) any { return Or(val(a[0]), val(a[1])) },
		"not": func(a []any) any { return Not(val(a[0])) },

		// Container protocol.
		"get_item": func(a []any) any { return GetItem(val(a[0]), val(a[1])) },
		"set_item": func(a []any) any { SetItem(val(a[0]), val(a[1]), val(a[2])); return nil },
		"slice": func(a []any) any {
			return Slice(val(a[0]), a[1].(int64), a[2].(int64), a[3].(int64))
		},
		"call_method": func(a []any) any {
			argv := val(a[2])
			argc := a[3].(int64)
			var args []*Value
			if argv != nil && argv.Tag == TagList {
				args = argv.List.Items[:argc]
			}
			return CallMethod(val(a[0]), str(a[1]), args)
		},
		"contains": func(a []any) any { return Contains(val(a[0]), val(a[1])) },
		"len":      func(a []any) any { return Len(val(a[0])) },

		// Container constructors beyond lists.
		"dict_new": func(a []any) any { return NewDict() },
		"set_new":  func(a []any) any { return NewSet() },
		"set_add":  func(a []any) any { val(a[0]).Set.add(val(a[1])); return nil },
		"tuple_from_list": func(a []any) any {
			l := val(a[0])
			items := make([]*Value, len(l.List.Items))
			for i, it := range l.List.Items {
				items[i] = Clone(it)
			}
			return NewTuple(items...)
		},

		// Exceptions.
		"set_current_exception":   func(a []any) any { SetCurrentException(val(a[0])); return nil },
		"get_current_exception":   func(a []any) any { return GetCurrentException() },
		"clear_current_exception": func(a []any) any { ClearCurrentException(); return nil },

		// Ranges.
		"range_1":       func(a []any) any { return Range1(a[0].(int64)) },
		"range_2":       func(a []any) any { return Range2(a[0].(int64), a[1].(int64)) },
		"range_3":       func(a []any) any { return Range3(a[0].(int64), a[1].(int64), a[2].(int64)) },
		"range_cleanup": func(a []any) any { RangeCleanup(rng(a[0])); return nil },
		"range_len":     func(a []any) any { return rng(a[0]).Len() },
		"range_at":      func(a []any) any { return rng(a[0]).At(a[1].(int64)) },

		// Lists.
		"list_new":           func(a []any) any { return ListNew() },
		"list_with_capacity": func(a []any) any { return ListWithCapacity(a[0].(int64)) },
		"list_get":           func(a []any) any { return ListGet(val(a[0]), a[1].(int64)) },
		"list_set":           func(a []any) any { ListSet(val(a[0]), a[1].(int64), val(a[2])); return nil },
		"list_append":        func(a []any) any { ListAppend(val(a[0]), val(a[1])); return nil },
		"list_len":           func(a []any) any { return ListLen(val(a[0])) },
		"list_free":          func(a []any) any { ListFree(val(a[0])); return nil },
		"list_slice": func(a []any) any {
			return ListSlice(val(a[0]), a[1].(int64), a[2].(int64), a[3].(int64))
		},
		"list_concat": func(a []any) any { return ListConcat(val(a[0]), val(a[1])) },
		"list_repeat": func(a []any) any { return ListRepeat(val(a[0]), a[1].(int64)) },

		// Printing.
		"print_string":   func(a []any) any { PrintString(str(a[0])); return nil },
		"println_string": func(a []any) any { PrintlnString(str(a[0])); return nil },
		"print_int":      func(a []any) any { PrintInt(a[0].(int64)); return nil },
		"print_float":    func(a []any) any { PrintFloat(a[0].(float64)); return nil },
		"print_bool":     func(a []any) any { PrintBool(a[0].(bool)); return nil },
		"print_value":    func(a []any) any { PrintValue(val(a[0])); return nil },

		// String conversions.
		"int_to_string":   func(a []any) any { return IntToString(a[0].(int64)) },
		"float_to_string": func(a []any) any { return FloatToString(a[0].(float64)) },
		"bool_to_string":  func(a []any) any { return BoolToString(a[0].(bool)) },
		"char_to_string":  func(a []any) any { return CharToString(a[0].(int64)) },
		"string_to_int":   func(a []any) any { return StringToInt(str(a[0])) },
		"string_to_float": func(a []any) any { return StringToFloat(str(a[0])) },
		"string_to_bool":  func(a []any) any { return StringToBool(str(a[0])) },
		"free_string":     func(a []any) any { FreeString(str(a[0])); return nil },
		"string_concat":   func(a []any) any { return StringConcat(str(a[0]), str(a[1])) },
		"string_equals":   func(a []any) any { return StringEquals(str(a[0]), str(a[1])) },
		"string_length":   func(a []any) any { return StringLength(str(a[0])) },

		// Parallel loop dispatch.
		"parallel_range_for_each": func(a []any) any {
			ParallelRangeForEach(a[0].(int64), a[1].(int64), a[2].(int64), a[3].(BodyFunc))
			return nil
		},
	}
}

// str asserts a raw string argument. The empty string constant reaches
// externs as a nil reference, so nil maps back to "".
func str(a any) string {
	if a == nil {
		return ""
	}
	return a.(string)
}

// val asserts a boxed argument to a tagged-value handle, treating nil as
// the none value.
func val(a any) *Value {
	if a == nil {
		return nil
	}
	return a.(*Value)
}

func rng(a any) *RangeIter { return a.(*RangeIter) }
