package vm

// OpCode identifies one register-machine instruction. Operand meaning is
// noted per opcode: rD/rF/rS/rA are int/float/string/address registers, k*
// are constant-pool indices, and "imm" is a value encoded directly in the
// instruction.
type OpCode int

// Loads and moves
const (
	OP_LI    OpCode = iota // rD[A] = imm B
	OP_LK                  // rD[A] = kint[B]
	OP_LKF                 // rF[A] = kfloat[B]
	OP_LKS                 // rS[A] = kstring[B]
	OP_LKP                 // rA[A] = kaddr[B]
	OP_MOVE                // rD[A] = rD[B]
	OP_MOVEF               // rF[A] = rF[B]
	OP_MOVES               // rS[A] = rS[B]
	OP_MOVEP               // rA[A] = rA[B]
	OP_CAST                // cast rB to rA using conversion C
)

// Integer arithmetic. The _RK/_KR variants read one side from the constant
// pool; codegen relies on RK = RR+1 and KR = RR+2 for the ops that have
// all three forms.
const (
	OP_ADD_RR OpCode = OP_CAST + 1 + iota // rD[A] = rD[B] + rD[C]
	OP_ADD_RK                             // rD[A] = rD[B] + kint[C]
	OP_SUB_RR                             // rD[A] = rD[B] - rD[C]
	OP_SUB_RK                             // rD[A] = rD[B] - kint[C]
	OP_SUB_KR                             // rD[A] = kint[B] - rD[C]
	OP_MUL_RR                             // rD[A] = rD[B] * rD[C]
	OP_MUL_RK                             // rD[A] = rD[B] * kint[C]
	OP_DIV_RR                             // rD[A] = rD[B] / rD[C]
	OP_DIV_RK                             // rD[A] = rD[B] / kint[C]
	OP_DIV_KR                             // rD[A] = kint[B] / rD[C]
	OP_MOD_RR                             // rD[A] = rD[B] % rD[C]
	OP_MOD_RK                             // rD[A] = rD[B] % kint[C]
	OP_MOD_KR                             // rD[A] = kint[B] % rD[C]
	OP_NEG                                // rD[A] = -rD[B]
	OP_ABS                                // rD[A] = abs(rD[B])
)

// Integer bitwise ops. Shift counts may come from a register, an immediate
// (_RI), or have a constant left side (_KR).
const (
	OP_NOT    OpCode = OP_ABS + 1 + iota // rD[A] = ^rD[B]
	OP_AND_RR                            // rD[A] = rD[B] & rD[C]
	OP_AND_RK                            // rD[A] = rD[B] & kint[C]
	OP_OR_RR                             // rD[A] = rD[B] | rD[C]
	OP_OR_RK                             // rD[A] = rD[B] | kint[C]
	OP_XOR_RR                            // rD[A] = rD[B] ^ rD[C]
	OP_XOR_RK                            // rD[A] = rD[B] ^ kint[C]
	OP_SLL_RR                            // rD[A] = rD[B] << rD[C]
	OP_SLL_RI                            // rD[A] = rD[B] << imm C
	OP_SLL_KR                            // rD[A] = kint[B] << rD[C]
	OP_SRA_RR                            // rD[A] = rD[B] >> rD[C] (arithmetic)
	OP_SRA_RI                            // rD[A] = rD[B] >> imm C
	OP_SRA_KR                            // rD[A] = kint[B] >> rD[C]
	OP_SRL_RR                            // rD[A] = uint32(rD[B]) >> rD[C]
	OP_SRL_RI                            // rD[A] = uint32(rD[B]) >> imm C
	OP_SRL_KR                            // rD[A] = uint32(kint[B]) >> rD[C]
)

// Float arithmetic
const (
	OP_ADDF_RR OpCode = OP_SRL_KR + 1 + iota // rF[A] = rF[B] + rF[C]
	OP_ADDF_RK                               // rF[A] = rF[B] + kfloat[C]
	OP_SUBF_RR                               // rF[A] = rF[B] - rF[C]
	OP_SUBF_RK                               // rF[A] = rF[B] - kfloat[C]
	OP_SUBF_KR                               // rF[A] = kfloat[B] - rF[C]
	OP_MULF_RR                               // rF[A] = rF[B] * rF[C]
	OP_MULF_RK                               // rF[A] = rF[B] * kfloat[C]
	OP_DIVF_RR                               // rF[A] = rF[B] / rF[C]
	OP_DIVF_RK                               // rF[A] = rF[B] / kfloat[C]
	OP_DIVF_KR                               // rF[A] = kfloat[B] / rF[C]
	OP_MODF_RR                               // rF[A] = fmod(rF[B], rF[C])
	OP_MODF_RK                               // rF[A] = fmod(rF[B], kfloat[C])
	OP_MODF_KR                               // rF[A] = fmod(kfloat[B], rF[C])
	OP_POWF_RR                               // rF[A] = pow(rF[B], rF[C])
	OP_POWF_RK                               // rF[A] = pow(rF[B], kfloat[C])
	OP_POWF_KR                               // rF[A] = pow(kfloat[B], rF[C])
	OP_FLOP                                  // rF[A] = flop C applied to rF[B]
	OP_ATAN2                                 // rF[A] = atan2(rF[B], rF[C]) in degrees
)

// Comparisons. Each tests a pair and, when the outcome matches the check
// flag in A bit 0, executes the following instruction (always a jump);
// otherwise that instruction is skipped. The EQF variants honor CMP_APPROX
// in A for epsilon float equality.
const (
	OP_EQ_R   OpCode = OP_ATAN2 + 1 + iota // (rD[B] == rD[C]) == A
	OP_EQ_K                                // (rD[B] == kint[C]) == A
	OP_EQF_R                               // (rF[B] == rF[C]) == A
	OP_EQF_K                               // (rF[B] == kfloat[C]) == A
	OP_EQA_R                               // (rA[B] == rA[C]) == A
	OP_EQA_K                               // (rA[B] == kaddr[C]) == A
	OP_LT_RR                               // (rD[B] < rD[C]) == A
	OP_LT_RK                               // (rD[B] < kint[C]) == A
	OP_LT_KR                               // (kint[B] < rD[C]) == A
	OP_LTF_RR                              // (rF[B] < rF[C]) == A
	OP_LTF_RK                              // (rF[B] < kfloat[C]) == A
	OP_LTF_KR                              // (kfloat[B] < rF[C]) == A
	OP_LE_RR                               // (rD[B] <= rD[C]) == A
	OP_LE_RK                               // (rD[B] <= kint[C]) == A
	OP_LE_KR                               // (kint[B] <= rD[C]) == A
	OP_LEF_RR                              // (rF[B] <= rF[C]) == A
	OP_LEF_RK                              // (rF[B] <= kfloat[C]) == A
	OP_LEF_KR                              // (kfloat[B] <= rF[C]) == A
)

// Control flow. Jump offsets are relative to the next instruction.
const (
	OP_JMP   OpCode = OP_LEF_KR + 1 + iota // ip += A
	OP_IJMP                                // ip += rD[A] + B (computed jump table)
	OP_TEST                                // if rD[A] != B, skip next instruction
	OP_BOUND                               // abort if uint(rD[A]) >= uint(B)
)

// Loads and stores through a pointer register. The _R variant (always the
// base opcode + 1) takes the byte offset from an int register instead of
// the int constant pool.
const (
	OP_LW   OpCode = OP_BOUND + 1 + iota // rD[A] = *(rA[B] + kint[C])
	OP_LW_R                              // rD[A] = *(rA[B] + rD[C])
	OP_LF                                // rF[A] = *(rA[B] + kint[C])
	OP_LF_R                              // rF[A] = *(rA[B] + rD[C])
	OP_LS                                // rS[A] = *(rA[B] + kint[C])
	OP_LS_R                              // rS[A] = *(rA[B] + rD[C])
	OP_LP                                // rA[A] = *(rA[B] + kint[C])
	OP_LP_R                              // rA[A] = *(rA[B] + rD[C])
	OP_LO                                // rA[A] = object at *(rA[B] + kint[C])
	OP_LO_R                              // rA[A] = object at *(rA[B] + rD[C])
	OP_SW                                // *(rA[A] + kint[C]) = rD[B]
	OP_SW_R                              // *(rA[A] + rD[C]) = rD[B]
	OP_SF                                // *(rA[A] + kint[C]) = rF[B]
	OP_SF_R                              // *(rA[A] + rD[C]) = rF[B]
	OP_SS                                // *(rA[A] + kint[C]) = rS[B]
	OP_SS_R                              // *(rA[A] + rD[C]) = rS[B]
	OP_SP                                // *(rA[A] + kint[C]) = rA[B]
	OP_SP_R                              // *(rA[A] + rD[C]) = rA[B]
	OP_ADDA_RK                           // rA[A] = rA[B] + kint[C]
	OP_ADDA_RR                           // rA[A] = rA[B] + rD[C]
)

// Calls and returns
const (
	OP_PARAM  OpCode = OP_ADDA_RR + 1 + iota // push arg: B = regtype (|REGT_KONST), C = reg/konst
	OP_PARAMI                                // push immediate int arg A
	OP_CALL_K                                // call kaddr[A] with B args expecting C results
	OP_TAIL_K                                // tail-call kaddr[A] with B args
	OP_RESULT                                // pop next call result into reg C of regtype B
	OP_RET                                   // return value: A = index|RET_FINAL, B = regtype (|REGT_KONST), C = reg/konst
	OP_RETI                                  // return immediate int B at index A|RET_FINAL
)

// Operand encodings shared with codegen.
const (
	// REGT_KONST marks a PARAM/RET operand as a constant-pool index.
	REGT_KONST = 8
	// REGT_NIL marks a PARAM/RET with no value.
	REGT_NIL = 16
	// RET_FINAL marks the last return instruction of a function.
	RET_FINAL = 0x80
	// CMP_APPROX selects epsilon comparison on OP_EQF variants.
	CMP_APPROX = 2
)

// Float single-operand operation selectors for OP_FLOP. Trigonometric
// selectors ending in _DEG take or produce degrees; the conversions match
// the compile-time folds exactly.
const (
	FLOP_ABS = iota
	FLOP_NEG
	FLOP_EXP
	FLOP_LOG
	FLOP_LOG10
	FLOP_SQRT
	FLOP_CEIL
	FLOP_FLOOR
	FLOP_ACOS_DEG
	FLOP_ASIN_DEG
	FLOP_ATAN_DEG
	FLOP_COS_DEG
	FLOP_SIN_DEG
	FLOP_TAN_DEG
	FLOP_COSH
	FLOP_SINH
	FLOP_TANH
)

// Cast conversion selectors for OP_CAST.
const (
	CAST_I2F = iota // int -> float
	CAST_F2I        // float -> int (truncating)
	CAST_S2N        // string -> name
	CAST_N2S        // name -> string
	CAST_S2Co       // string -> color
	CAST_S2So       // string -> sound
	CAST_So2S       // sound -> string
)

var opNames = map[OpCode]string{
	OP_LI: "li", OP_LK: "lk", OP_LKF: "lkf", OP_LKS: "lks", OP_LKP: "lkp",
	OP_MOVE: "move", OP_MOVEF: "movef", OP_MOVES: "moves", OP_MOVEP: "movep",
	OP_CAST: "cast",
	OP_ADD_RR: "add_rr", OP_ADD_RK: "add_rk",
	OP_SUB_RR: "sub_rr", OP_SUB_RK: "sub_rk", OP_SUB_KR: "sub_kr",
	OP_MUL_RR: "mul_rr", OP_MUL_RK: "mul_rk",
	OP_DIV_RR: "div_rr", OP_DIV_RK: "div_rk", OP_DIV_KR: "div_kr",
	OP_MOD_RR: "mod_rr", OP_MOD_RK: "mod_rk", OP_MOD_KR: "mod_kr",
	OP_NEG: "neg", OP_ABS: "abs", OP_NOT: "not",
	OP_AND_RR: "and_rr", OP_AND_RK: "and_rk",
	OP_OR_RR: "or_rr", OP_OR_RK: "or_rk",
	OP_XOR_RR: "xor_rr", OP_XOR_RK: "xor_rk",
	OP_SLL_RR: "sll_rr", OP_SLL_RI: "sll_ri", OP_SLL_KR: "sll_kr",
	OP_SRA_RR: "sra_rr", OP_SRA_RI: "sra_ri", OP_SRA_KR: "sra_kr",
	OP_SRL_RR: "srl_rr", OP_SRL_RI: "srl_ri", OP_SRL_KR: "srl_kr",
	OP_ADDF_RR: "addf_rr", OP_ADDF_RK: "addf_rk",
	OP_SUBF_RR: "subf_rr", OP_SUBF_RK: "subf_rk", OP_SUBF_KR: "subf_kr",
	OP_MULF_RR: "mulf_rr", OP_MULF_RK: "mulf_rk",
	OP_DIVF_RR: "divf_rr", OP_DIVF_RK: "divf_rk", OP_DIVF_KR: "divf_kr",
	OP_MODF_RR: "modf_rr", OP_MODF_RK: "modf_rk", OP_MODF_KR: "modf_kr",
	OP_POWF_RR: "powf_rr", OP_POWF_RK: "powf_rk", OP_POWF_KR: "powf_kr",
	OP_FLOP: "flop", OP_ATAN2: "atan2",
	OP_EQ_R: "eq_r", OP_EQ_K: "eq_k", OP_EQF_R: "eqf_r", OP_EQF_K: "eqf_k",
	OP_EQA_R: "eqa_r", OP_EQA_K: "eqa_k",
	OP_LT_RR: "lt_rr", OP_LT_RK: "lt_rk", OP_LT_KR: "lt_kr",
	OP_LTF_RR: "ltf_rr", OP_LTF_RK: "ltf_rk", OP_LTF_KR: "ltf_kr",
	OP_LE_RR: "le_rr", OP_LE_RK: "le_rk", OP_LE_KR: "le_kr",
	OP_LEF_RR: "lef_rr", OP_LEF_RK: "lef_rk", OP_LEF_KR: "lef_kr",
	OP_JMP: "jmp", OP_IJMP: "ijmp", OP_TEST: "test", OP_BOUND: "bound",
	OP_LW: "lw", OP_LW_R: "lw_r", OP_LF: "lf", OP_LF_R: "lf_r",
	OP_LS: "ls", OP_LS_R: "ls_r", OP_LP: "lp", OP_LP_R: "lp_r",
	OP_LO: "lo", OP_LO_R: "lo_r",
	OP_SW: "sw", OP_SW_R: "sw_r", OP_SF: "sf", OP_SF_R: "sf_r",
	OP_SS: "ss", OP_SS_R: "ss_r", OP_SP: "sp", OP_SP_R: "sp_r",
	OP_ADDA_RK: "adda_rk", OP_ADDA_RR: "adda_rr",
	OP_PARAM: "param", OP_PARAMI: "parami",
	OP_CALL_K: "call_k", OP_TAIL_K: "tail_k", OP_RESULT: "result",
	OP_RET: "ret", OP_RETI: "reti",
}

func (op OpCode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "op?"
}
