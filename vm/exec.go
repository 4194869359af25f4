package vm

import (
	"fmt"
	"math"

	"zsc/types"
)

// Param carries one argument or result across a call boundary. RegType
// selects the live payload.
type Param struct {
	RegType types.RegType
	I       int32
	F       float64
	S       string
	A       any
}

// NativeCall is the signature of a Go-implemented callable.
type NativeCall func(args []Param) ([]Param, error)

// IntParam builds an int argument.
func IntParam(v int32) Param { return Param{RegType: types.RegInt, I: v} }

// FloatParam builds a float argument.
func FloatParam(v float64) Param { return Param{RegType: types.RegFloat, F: v} }

// StringParam builds a string argument.
func StringParam(s string) Param { return Param{RegType: types.RegString, S: s} }

// AddrParam builds a pointer argument.
func AddrParam(a any) Param { return Param{RegType: types.RegPointer, A: a} }

// Epsilon used by the approximate float comparisons.
const cmpEpsilon = 1.0 / 65536.0

// Pointer is an address register value pointing into an object at a byte
// offset. The zero Pointer is null.
type Pointer struct {
	Obj *Object
	Off int
}

// Object is interpreter-side instance storage addressed by byte offset, one
// map per register class.
type Object struct {
	Class *types.Class

	ints   map[int]int32
	floats map[int]float64
	strs   map[int]string
	ptrs   map[int]any
}

// NewObject allocates an empty instance of cls.
func NewObject(cls *types.Class) *Object {
	return &Object{
		Class:  cls,
		ints:   map[int]int32{},
		floats: map[int]float64{},
		strs:   map[int]string{},
		ptrs:   map[int]any{},
	}
}

// SetInt stores an integer-class value at a byte offset.
func (o *Object) SetInt(off int, v int32) { o.ints[off] = v }

// SetFloat stores a float value at a byte offset.
func (o *Object) SetFloat(off int, v float64) { o.floats[off] = v }

// SetString stores a string value at a byte offset.
func (o *Object) SetString(off int, v string) { o.strs[off] = v }

// SetPtr stores a pointer value at a byte offset.
func (o *Object) SetPtr(off int, v any) { o.ptrs[off] = v }

// GetInt reads an integer-class value at a byte offset.
func (o *Object) GetInt(off int) int32 { return o.ints[off] }

// GetFloat reads a float value at a byte offset.
func (o *Object) GetFloat(off int) float64 { return o.floats[off] }

// GetString reads a string value at a byte offset.
func (o *Object) GetString(off int) string { return o.strs[off] }

// GetPtr reads a pointer value at a byte offset.
func (o *Object) GetPtr(off int) any { return o.ptrs[off] }

func resolvePointer(v any) (*Object, int, error) {
	switch p := v.(type) {
	case nil:
		return nil, 0, fmt.Errorf("null pointer dereference")
	case *Object:
		if p == nil {
			return nil, 0, fmt.Errorf("null pointer dereference")
		}
		return p, 0, nil
	case Pointer:
		if p.Obj == nil {
			return nil, 0, fmt.Errorf("null pointer dereference")
		}
		return p.Obj, p.Off, nil
	default:
		return nil, 0, fmt.Errorf("dereference of non-object pointer %T", v)
	}
}

// Flop applies a single-operand float operation. Compile-time folding uses
// the same table, so constants and emitted code always agree.
func Flop(id int, v float64) float64 {
	const degToRad = math.Pi / 180
	const radToDeg = 180 / math.Pi
	switch id {
	case FLOP_ABS:
		return math.Abs(v)
	case FLOP_NEG:
		return -v
	case FLOP_EXP:
		return math.Exp(v)
	case FLOP_LOG:
		return math.Log(v)
	case FLOP_LOG10:
		return math.Log10(v)
	case FLOP_SQRT:
		return math.Sqrt(v)
	case FLOP_CEIL:
		return math.Ceil(v)
	case FLOP_FLOOR:
		return math.Floor(v)
	case FLOP_ACOS_DEG:
		return math.Acos(v) * radToDeg
	case FLOP_ASIN_DEG:
		return math.Asin(v) * radToDeg
	case FLOP_ATAN_DEG:
		return math.Atan(v) * radToDeg
	case FLOP_COS_DEG:
		return math.Cos(v * degToRad)
	case FLOP_SIN_DEG:
		return math.Sin(v * degToRad)
	case FLOP_TAN_DEG:
		return math.Tan(v * degToRad)
	case FLOP_COSH:
		return math.Cosh(v)
	case FLOP_SINH:
		return math.Sinh(v)
	case FLOP_TANH:
		return math.Tanh(v)
	}
	panic(fmt.Sprintf("unknown flop %d", id))
}

// ParseColor converts a color literal string to its packed ARGB value.
// Accepts "RRGGBB" or "#RRGGBB"; anything else parses as zero.
func ParseColor(s string) int32 {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return 0
	}
	var v int32
	for i := 0; i < 6; i++ {
		c := s[i]
		var d int32
		switch {
		case c >= '0' && c <= '9':
			d = int32(c - '0')
		case c >= 'a' && c <= 'f':
			d = int32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int32(c-'A') + 10
		default:
			return 0
		}
		v = v<<4 | d
	}
	return v
}

type execState struct {
	f  *Function
	rd []int32
	rf []float64
	rs []string
	ra []any

	params  []Param
	results []Param
	resPos  int
}

// Exec runs a compiled function with the given arguments and returns its
// results. Arguments fill registers of their class in declaration order.
func Exec(f *Function, args []Param) ([]Param, error) {
	st := &execState{
		f:  f,
		rd: make([]int32, max(f.NumRegs[types.RegInt], 1)),
		rf: make([]float64, max(f.NumRegs[types.RegFloat], 1)),
		rs: make([]string, max(f.NumRegs[types.RegString], 1)),
		ra: make([]any, max(f.NumRegs[types.RegPointer], 1)),
	}
	var nd, nf, ns, na int
	for _, a := range args {
		switch a.RegType {
		case types.RegInt:
			st.grow(&st.rd, nd)
			st.rd[nd] = a.I
			nd++
		case types.RegFloat:
			st.growF(&st.rf, nf)
			st.rf[nf] = a.F
			nf++
		case types.RegString:
			st.growS(&st.rs, ns)
			st.rs[ns] = a.S
			ns++
		case types.RegPointer:
			st.growA(&st.ra, na)
			st.ra[na] = a.A
			na++
		}
	}
	res, err := st.run()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return res, nil
}

func (st *execState) grow(s *[]int32, i int) {
	for len(*s) <= i {
		*s = append(*s, 0)
	}
}
func (st *execState) growF(s *[]float64, i int) {
	for len(*s) <= i {
		*s = append(*s, 0)
	}
}
func (st *execState) growS(s *[]string, i int) {
	for len(*s) <= i {
		*s = append(*s, "")
	}
}
func (st *execState) growA(s *[]any, i int) {
	for len(*s) <= i {
		*s = append(*s, nil)
	}
}

func (st *execState) run() ([]Param, error) {
	f := st.f
	var ret []Param
	ip := 0
	for ip < len(f.Code) {
		in := f.Code[ip]
		ip++
		switch in.Op {
		case OP_LI:
			st.rd[in.A] = int32(in.B)
		case OP_LK:
			st.rd[in.A] = f.KInt[in.B]
		case OP_LKF:
			st.rf[in.A] = f.KFloat[in.B]
		case OP_LKS:
			st.rs[in.A] = f.KString[in.B]
		case OP_LKP:
			st.ra[in.A] = f.KAddress[in.B].Value
		case OP_MOVE:
			st.rd[in.A] = st.rd[in.B]
		case OP_MOVEF:
			st.rf[in.A] = st.rf[in.B]
		case OP_MOVES:
			st.rs[in.A] = st.rs[in.B]
		case OP_MOVEP:
			st.ra[in.A] = st.ra[in.B]
		case OP_CAST:
			if err := st.cast(in); err != nil {
				return nil, err
			}

		case OP_ADD_RR:
			st.rd[in.A] = st.rd[in.B] + st.rd[in.C]
		case OP_ADD_RK:
			st.rd[in.A] = st.rd[in.B] + f.KInt[in.C]
		case OP_SUB_RR:
			st.rd[in.A] = st.rd[in.B] - st.rd[in.C]
		case OP_SUB_RK:
			st.rd[in.A] = st.rd[in.B] - f.KInt[in.C]
		case OP_SUB_KR:
			st.rd[in.A] = f.KInt[in.B] - st.rd[in.C]
		case OP_MUL_RR:
			st.rd[in.A] = st.rd[in.B] * st.rd[in.C]
		case OP_MUL_RK:
			st.rd[in.A] = st.rd[in.B] * f.KInt[in.C]
		case OP_DIV_RR:
			if st.rd[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rd[in.A] = st.rd[in.B] / st.rd[in.C]
		case OP_DIV_RK:
			if f.KInt[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rd[in.A] = st.rd[in.B] / f.KInt[in.C]
		case OP_DIV_KR:
			if st.rd[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rd[in.A] = f.KInt[in.B] / st.rd[in.C]
		case OP_MOD_RR:
			if st.rd[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rd[in.A] = st.rd[in.B] % st.rd[in.C]
		case OP_MOD_RK:
			if f.KInt[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rd[in.A] = st.rd[in.B] % f.KInt[in.C]
		case OP_MOD_KR:
			if st.rd[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rd[in.A] = f.KInt[in.B] % st.rd[in.C]
		case OP_NEG:
			st.rd[in.A] = -st.rd[in.B]
		case OP_ABS:
			v := st.rd[in.B]
			if v < 0 {
				v = -v
			}
			st.rd[in.A] = v
		case OP_NOT:
			st.rd[in.A] = ^st.rd[in.B]

		case OP_AND_RR:
			st.rd[in.A] = st.rd[in.B] & st.rd[in.C]
		case OP_AND_RK:
			st.rd[in.A] = st.rd[in.B] & f.KInt[in.C]
		case OP_OR_RR:
			st.rd[in.A] = st.rd[in.B] | st.rd[in.C]
		case OP_OR_RK:
			st.rd[in.A] = st.rd[in.B] | f.KInt[in.C]
		case OP_XOR_RR:
			st.rd[in.A] = st.rd[in.B] ^ st.rd[in.C]
		case OP_XOR_RK:
			st.rd[in.A] = st.rd[in.B] ^ f.KInt[in.C]
		case OP_SLL_RR:
			st.rd[in.A] = st.rd[in.B] << (uint32(st.rd[in.C]) & 31)
		case OP_SLL_RI:
			st.rd[in.A] = st.rd[in.B] << (uint(in.C) & 31)
		case OP_SLL_KR:
			st.rd[in.A] = f.KInt[in.B] << (uint32(st.rd[in.C]) & 31)
		case OP_SRA_RR:
			st.rd[in.A] = st.rd[in.B] >> (uint32(st.rd[in.C]) & 31)
		case OP_SRA_RI:
			st.rd[in.A] = st.rd[in.B] >> (uint(in.C) & 31)
		case OP_SRA_KR:
			st.rd[in.A] = f.KInt[in.B] >> (uint32(st.rd[in.C]) & 31)
		case OP_SRL_RR:
			st.rd[in.A] = int32(uint32(st.rd[in.B]) >> (uint32(st.rd[in.C]) & 31))
		case OP_SRL_RI:
			st.rd[in.A] = int32(uint32(st.rd[in.B]) >> (uint(in.C) & 31))
		case OP_SRL_KR:
			st.rd[in.A] = int32(uint32(f.KInt[in.B]) >> (uint32(st.rd[in.C]) & 31))

		case OP_ADDF_RR:
			st.rf[in.A] = st.rf[in.B] + st.rf[in.C]
		case OP_ADDF_RK:
			st.rf[in.A] = st.rf[in.B] + f.KFloat[in.C]
		case OP_SUBF_RR:
			st.rf[in.A] = st.rf[in.B] - st.rf[in.C]
		case OP_SUBF_RK:
			st.rf[in.A] = st.rf[in.B] - f.KFloat[in.C]
		case OP_SUBF_KR:
			st.rf[in.A] = f.KFloat[in.B] - st.rf[in.C]
		case OP_MULF_RR:
			st.rf[in.A] = st.rf[in.B] * st.rf[in.C]
		case OP_MULF_RK:
			st.rf[in.A] = st.rf[in.B] * f.KFloat[in.C]
		case OP_DIVF_RR:
			if st.rf[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rf[in.A] = st.rf[in.B] / st.rf[in.C]
		case OP_DIVF_RK:
			if f.KFloat[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rf[in.A] = st.rf[in.B] / f.KFloat[in.C]
		case OP_DIVF_KR:
			if st.rf[in.C] == 0 {
				return nil, fmt.Errorf("division by zero at %d", ip-1)
			}
			st.rf[in.A] = f.KFloat[in.B] / st.rf[in.C]
		case OP_MODF_RR:
			st.rf[in.A] = FloatMod(st.rf[in.B], st.rf[in.C])
		case OP_MODF_RK:
			st.rf[in.A] = FloatMod(st.rf[in.B], f.KFloat[in.C])
		case OP_MODF_KR:
			st.rf[in.A] = FloatMod(f.KFloat[in.B], st.rf[in.C])
		case OP_POWF_RR:
			st.rf[in.A] = math.Pow(st.rf[in.B], st.rf[in.C])
		case OP_POWF_RK:
			st.rf[in.A] = math.Pow(st.rf[in.B], f.KFloat[in.C])
		case OP_POWF_KR:
			st.rf[in.A] = math.Pow(f.KFloat[in.B], st.rf[in.C])
		case OP_FLOP:
			st.rf[in.A] = Flop(in.C, st.rf[in.B])
		case OP_ATAN2:
			st.rf[in.A] = math.Atan2(st.rf[in.B], st.rf[in.C]) * (180 / math.Pi)

		case OP_EQ_R:
			ip = cmpJump(ip, in.A, st.rd[in.B] == st.rd[in.C])
		case OP_EQ_K:
			ip = cmpJump(ip, in.A, st.rd[in.B] == f.KInt[in.C])
		case OP_EQF_R:
			ip = cmpJump(ip, in.A, floatEq(in.A, st.rf[in.B], st.rf[in.C]))
		case OP_EQF_K:
			ip = cmpJump(ip, in.A, floatEq(in.A, st.rf[in.B], f.KFloat[in.C]))
		case OP_EQA_R:
			ip = cmpJump(ip, in.A, st.ra[in.B] == st.ra[in.C])
		case OP_EQA_K:
			ip = cmpJump(ip, in.A, st.ra[in.B] == f.KAddress[in.C].Value)
		case OP_LT_RR:
			ip = cmpJump(ip, in.A, st.rd[in.B] < st.rd[in.C])
		case OP_LT_RK:
			ip = cmpJump(ip, in.A, st.rd[in.B] < f.KInt[in.C])
		case OP_LT_KR:
			ip = cmpJump(ip, in.A, f.KInt[in.B] < st.rd[in.C])
		case OP_LTF_RR:
			ip = cmpJump(ip, in.A, st.rf[in.B] < st.rf[in.C])
		case OP_LTF_RK:
			ip = cmpJump(ip, in.A, st.rf[in.B] < f.KFloat[in.C])
		case OP_LTF_KR:
			ip = cmpJump(ip, in.A, f.KFloat[in.B] < st.rf[in.C])
		case OP_LE_RR:
			ip = cmpJump(ip, in.A, st.rd[in.B] <= st.rd[in.C])
		case OP_LE_RK:
			ip = cmpJump(ip, in.A, st.rd[in.B] <= f.KInt[in.C])
		case OP_LE_KR:
			ip = cmpJump(ip, in.A, f.KInt[in.B] <= st.rd[in.C])
		case OP_LEF_RR:
			ip = cmpJump(ip, in.A, st.rf[in.B] <= st.rf[in.C])
		case OP_LEF_RK:
			ip = cmpJump(ip, in.A, st.rf[in.B] <= f.KFloat[in.C])
		case OP_LEF_KR:
			ip = cmpJump(ip, in.A, f.KFloat[in.B] <= st.rf[in.C])

		case OP_JMP:
			ip += in.A
		case OP_IJMP:
			ip += int(st.rd[in.A]) + in.B
		case OP_TEST:
			if int(st.rd[in.A]) != in.B {
				ip++
			}
		case OP_BOUND:
			if uint32(st.rd[in.A]) >= uint32(in.B) {
				return nil, fmt.Errorf("array index %d out of bounds (max %d) at %d", st.rd[in.A], in.B, ip-1)
			}

		case OP_LW, OP_LW_R, OP_LF, OP_LF_R, OP_LS, OP_LS_R,
			OP_LP, OP_LP_R, OP_LO, OP_LO_R:
			if err := st.load(in); err != nil {
				return nil, fmt.Errorf("%w at %d", err, ip-1)
			}
		case OP_SW, OP_SW_R, OP_SF, OP_SF_R, OP_SS, OP_SS_R, OP_SP, OP_SP_R:
			if err := st.store(in); err != nil {
				return nil, fmt.Errorf("%w at %d", err, ip-1)
			}
		case OP_ADDA_RK:
			obj, off, err := resolvePointer(st.ra[in.B])
			if err != nil {
				return nil, fmt.Errorf("%w at %d", err, ip-1)
			}
			st.ra[in.A] = Pointer{Obj: obj, Off: off + int(f.KInt[in.C])}
		case OP_ADDA_RR:
			obj, off, err := resolvePointer(st.ra[in.B])
			if err != nil {
				return nil, fmt.Errorf("%w at %d", err, ip-1)
			}
			st.ra[in.A] = Pointer{Obj: obj, Off: off + int(st.rd[in.C])}

		case OP_PARAM:
			st.params = append(st.params, st.paramValue(in.B, in.C))
		case OP_PARAMI:
			st.params = append(st.params, IntParam(int32(in.A)))
		case OP_CALL_K:
			res, err := st.call(f.KAddress[in.A].Value, in.B)
			if err != nil {
				return nil, err
			}
			st.results = res
			st.resPos = 0
		case OP_TAIL_K:
			res, err := st.call(f.KAddress[in.A].Value, in.B)
			if err != nil {
				return nil, err
			}
			return res, nil
		case OP_RESULT:
			if st.resPos < len(st.results) {
				st.setReg(in.B, in.C, st.results[st.resPos])
			}
			st.resPos++
		case OP_RET:
			idx := in.A &^ RET_FINAL
			if in.B&REGT_NIL == 0 {
				ret = setResult(ret, idx, st.paramValue(in.B, in.C))
			}
			if in.A&RET_FINAL != 0 {
				return ret, nil
			}
		case OP_RETI:
			idx := in.A &^ RET_FINAL
			ret = setResult(ret, idx, IntParam(int32(in.B)))
			if in.A&RET_FINAL != 0 {
				return ret, nil
			}

		default:
			return nil, fmt.Errorf("unimplemented opcode %s at %d", in.Op, ip-1)
		}
	}
	return ret, nil
}

func FloatMod(a, b float64) float64 {
	v := math.Mod(a, b)
	if v != 0 && (v < 0) != (b < 0) {
		v += b
	}
	return v
}

func floatEq(flags int, a, b float64) bool {
	if flags&CMP_APPROX != 0 {
		return math.Abs(a-b) < cmpEpsilon
	}
	return a == b
}

// cmpJump implements the compare-then-maybe-skip protocol: when the test
// outcome differs from the check bit, the jump that follows is skipped.
func cmpJump(ip, flags int, test bool) int {
	if test != (flags&1 != 0) {
		return ip + 1
	}
	return ip
}

func (st *execState) cast(in Instruction) error {
	switch in.C {
	case CAST_I2F:
		st.rf[in.A] = float64(st.rd[in.B])
	case CAST_F2I:
		st.rd[in.A] = int32(st.rf[in.B])
	case CAST_S2N:
		st.rd[in.A] = int32(types.NewName(st.rs[in.B]))
	case CAST_N2S:
		st.rs[in.A] = types.Name(st.rd[in.B]).String()
	case CAST_S2Co:
		st.rd[in.A] = ParseColor(st.rs[in.B])
	case CAST_S2So:
		st.rd[in.A] = int32(types.NewName(st.rs[in.B]))
	case CAST_So2S:
		st.rs[in.A] = types.Name(st.rd[in.B]).String()
	default:
		return fmt.Errorf("unknown cast %d", in.C)
	}
	return nil
}

func (st *execState) load(in Instruction) error {
	obj, off, err := resolvePointer(st.ra[in.B])
	if err != nil {
		return err
	}
	// The _R variants read the offset from an int register.
	switch in.Op {
	case OP_LW, OP_LF, OP_LS, OP_LP, OP_LO:
		off += int(st.f.KInt[in.C])
	default:
		off += int(st.rd[in.C])
	}
	switch in.Op {
	case OP_LW, OP_LW_R:
		st.rd[in.A] = obj.GetInt(off)
	case OP_LF, OP_LF_R:
		st.rf[in.A] = obj.GetFloat(off)
	case OP_LS, OP_LS_R:
		st.rs[in.A] = obj.GetString(off)
	case OP_LP, OP_LP_R, OP_LO, OP_LO_R:
		st.ra[in.A] = obj.GetPtr(off)
	}
	return nil
}

func (st *execState) store(in Instruction) error {
	obj, off, err := resolvePointer(st.ra[in.A])
	if err != nil {
		return err
	}
	switch in.Op {
	case OP_SW, OP_SF, OP_SS, OP_SP:
		off += int(st.f.KInt[in.C])
	default:
		off += int(st.rd[in.C])
	}
	switch in.Op {
	case OP_SW, OP_SW_R:
		obj.SetInt(off, st.rd[in.B])
	case OP_SF, OP_SF_R:
		obj.SetFloat(off, st.rf[in.B])
	case OP_SS, OP_SS_R:
		obj.SetString(off, st.rs[in.B])
	case OP_SP, OP_SP_R:
		obj.SetPtr(off, st.ra[in.B])
	}
	return nil
}

// paramValue materializes a PARAM/RET operand: regtype in rt (possibly with
// REGT_KONST or REGT_NIL), register or pool index in c.
func (st *execState) paramValue(rt, c int) Param {
	if rt&REGT_NIL != 0 {
		return AddrParam(nil)
	}
	konst := rt&REGT_KONST != 0
	switch types.RegType(rt &^ REGT_KONST) {
	case types.RegInt:
		if konst {
			return IntParam(st.f.KInt[c])
		}
		return IntParam(st.rd[c])
	case types.RegFloat:
		if konst {
			return FloatParam(st.f.KFloat[c])
		}
		return FloatParam(st.rf[c])
	case types.RegString:
		if konst {
			return StringParam(st.f.KString[c])
		}
		return StringParam(st.rs[c])
	case types.RegPointer:
		if konst {
			return AddrParam(st.f.KAddress[c].Value)
		}
		return AddrParam(st.ra[c])
	}
	return Param{RegType: types.RegNil}
}

func (st *execState) setReg(rt, reg int, v Param) {
	switch types.RegType(rt) {
	case types.RegInt:
		st.rd[reg] = v.I
	case types.RegFloat:
		st.rf[reg] = v.F
	case types.RegString:
		st.rs[reg] = v.S
	case types.RegPointer:
		st.ra[reg] = v.A
	}
}

func (st *execState) call(callee any, argc int) ([]Param, error) {
	if len(st.params) < argc {
		return nil, fmt.Errorf("call expects %d args, %d pushed", argc, len(st.params))
	}
	args := st.params[len(st.params)-argc:]
	st.params = st.params[:len(st.params)-argc]
	switch fn := callee.(type) {
	case *NativeFunction:
		return fn.Call(args)
	case *Function:
		return Exec(fn, args)
	default:
		return nil, fmt.Errorf("call through non-function address %T", callee)
	}
}

func setResult(ret []Param, idx int, v Param) []Param {
	for len(ret) <= idx {
		ret = append(ret, Param{RegType: types.RegNil})
	}
	ret[idx] = v
	return ret
}
