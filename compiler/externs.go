package compiler

import "github.com/cheetah-lang/cheetah/ir"

// externSigs lists every runtime ABI symbol the lowering may emit a call
// to, with its IR signature. The runtime package implements each name;
// the execution engine resolves them through its symbol map.
var externSigs = map[string]*ir.Signature{
	// Tagged-value constructors and ownership.
	"from_int":    ir.NewSignature(ir.Ptr, ir.I64),
	"from_float":  ir.NewSignature(ir.Ptr, ir.F64),
	"from_bool":   ir.NewSignature(ir.Ptr, ir.I1),
	"from_string": ir.NewSignature(ir.Ptr, ir.Ptr),
	"none":        ir.NewSignature(ir.Ptr),
	"free":        ir.NewSignature(ir.Void, ir.Ptr),
	"clone":       ir.NewSignature(ir.Ptr, ir.Ptr),

	// Unboxing.
	"to_int":    ir.NewSignature(ir.I64, ir.Ptr),
	"to_float":  ir.NewSignature(ir.F64, ir.Ptr),
	"to_bool":   ir.NewSignature(ir.I1, ir.Ptr),
	"to_string": ir.NewSignature(ir.Ptr, ir.Ptr),

	// Arithmetic.
	"add":       ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"subtract":  ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"multiply":  ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"divide":    ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"floor_div": ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"modulo":    ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"power":     ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"negate":    ir.NewSignature(ir.Ptr, ir.Ptr),

	// Comparison.
	"equals":        ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"not_equals":    ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"less_than":     ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"less_equal":    ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"greater_than":  ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"greater_equal": ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),

	// Bitwise and shifts.
	"bit_and":     ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"bit_or":      ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"bit_xor":     ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"bit_not":     ir.NewSignature(ir.Ptr, ir.Ptr),
	"shift_left":  ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"shift_right": ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),

	// Short-circuit selection and logical not.
	"and": ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"or":  ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"not": ir.NewSignature(ir.Ptr, ir.Ptr),

	// Container protocol.
	"get_item":    ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"set_item":    ir.NewSignature(ir.Void, ir.Ptr, ir.Ptr, ir.Ptr),
	"slice":       ir.NewSignature(ir.Ptr, ir.Ptr, ir.I64, ir.I64, ir.I64),
	"call_method": ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr, ir.Ptr, ir.I64),
	"contains":    ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"len":         ir.NewSignature(ir.I64, ir.Ptr),

	// Container constructors beyond lists.
	"dict_new":        ir.NewSignature(ir.Ptr),
	"set_new":         ir.NewSignature(ir.Ptr),
	"set_add":         ir.NewSignature(ir.Void, ir.Ptr, ir.Ptr),
	"tuple_from_list": ir.NewSignature(ir.Ptr, ir.Ptr),

	// Exceptions.
	"set_current_exception":   ir.NewSignature(ir.Void, ir.Ptr),
	"get_current_exception":   ir.NewSignature(ir.Ptr),
	"clear_current_exception": ir.NewSignature(ir.Void),

	// Ranges.
	"range_1":       ir.NewSignature(ir.Ptr, ir.I64),
	"range_2":       ir.NewSignature(ir.Ptr, ir.I64, ir.I64),
	"range_3":       ir.NewSignature(ir.Ptr, ir.I64, ir.I64, ir.I64),
	"range_cleanup": ir.NewSignature(ir.Void, ir.Ptr),
	"range_len":     ir.NewSignature(ir.I64, ir.Ptr),
	"range_at":      ir.NewSignature(ir.I64, ir.Ptr, ir.I64),

	// Lists.
	"list_new":           ir.NewSignature(ir.Ptr),
	"list_with_capacity": ir.NewSignature(ir.Ptr, ir.I64),
	"list_get":           ir.NewSignature(ir.Ptr, ir.Ptr, ir.I64),
	"list_set":           ir.NewSignature(ir.Void, ir.Ptr, ir.I64, ir.Ptr),
	"list_append":        ir.NewSignature(ir.Void, ir.Ptr, ir.Ptr),
	"list_len":           ir.NewSignature(ir.I64, ir.Ptr),
	"list_free":          ir.NewSignature(ir.Void, ir.Ptr),
	"list_slice":         ir.NewSignature(ir.Ptr, ir.Ptr, ir.I64, ir.I64, ir.I64),
	"list_concat":        ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"list_repeat":        ir.NewSignature(ir.Ptr, ir.Ptr, ir.I64),

	// Printing.
	"print_string":   ir.NewSignature(ir.Void, ir.Ptr),
	"println_string": ir.NewSignature(ir.Void, ir.Ptr),
	"print_int":      ir.NewSignature(ir.Void, ir.I64),
	"print_float":    ir.NewSignature(ir.Void, ir.F64),
	"print_bool":     ir.NewSignature(ir.Void, ir.I1),
	"print_value":    ir.NewSignature(ir.Void, ir.Ptr),

	// String conversions. Raw strings travel as opaque handles.
	"int_to_string":   ir.NewSignature(ir.Ptr, ir.I64),
	"float_to_string": ir.NewSignature(ir.Ptr, ir.F64),
	"bool_to_string":  ir.NewSignature(ir.Ptr, ir.I1),
	"char_to_string":  ir.NewSignature(ir.Ptr, ir.I64),
	"string_to_int":   ir.NewSignature(ir.I64, ir.Ptr),
	"string_to_float": ir.NewSignature(ir.F64, ir.Ptr),
	"string_to_bool":  ir.NewSignature(ir.I1, ir.Ptr),
	"free_string":     ir.NewSignature(ir.Void, ir.Ptr),
	"string_concat":   ir.NewSignature(ir.Ptr, ir.Ptr, ir.Ptr),
	"string_equals":   ir.NewSignature(ir.I1, ir.Ptr, ir.Ptr),
	"string_length":   ir.NewSignature(ir.I64, ir.Ptr),

	// Parallel loop dispatch.
	"parallel_range_for_each": ir.NewSignature(ir.Void, ir.I64, ir.I64, ir.I64, ir.Ptr),
}
