package test

import (
	"database/sql"

	"github.com/google/uuid"
)

// SimpleStruct 包含了所有支持的类型，用于测试结果集的映射
type SimpleStruct struct {
	Id      uint64
	Bool    bool
	BoolPtr *bool

	Int    int
	IntPtr *int

	Int8    int8
	Int8Ptr *int8

	Int16    int16
	Int16Ptr *int16

	Int32    int32
	Int32Ptr *int32

	Int64    int64
	Int64Ptr *int64

	Uint    uint
	UintPtr *uint

	Uint8    uint8
	Uint8Ptr *uint8

	Uint16    uint16
	Uint16Ptr *uint16

	Uint32    uint32
	Uint32Ptr *uint32

	Uint64    uint64
	Uint64Ptr *uint64

	Float32    float32
	Float32Ptr *float32

	Float64    float64
	Float64Ptr *float64

	ByteArray []byte
	String    string

	NullStringPtr  *sql.NullString
	NullInt16Ptr   *sql.NullInt16
	NullInt32Ptr   *sql.NullInt32
	NullInt64Ptr   *sql.NullInt64
	NullBoolPtr    *sql.NullBool
	NullFloat64Ptr *sql.NullFloat64

	Uuid uuid.UUID
}

// SimpleStructUUID NewSimpleStruct 使用的 UUID
var SimpleStructUUID = uuid.MustParse("2f1e5c3a-0b6d-4d7e-9a8b-1c2d3e4f5a6b")

// NewSimpleStruct 返回和 SimpleStructRow 一一对应的数据
func NewSimpleStruct(id uint64) *SimpleStruct {
	return &SimpleStruct{
		Id:             id,
		Bool:           true,
		BoolPtr:        toPtr(false),
		Int:            12,
		IntPtr:         toPtr(13),
		Int8:           8,
		Int8Ptr:        toPtr[int8](-8),
		Int16:          16,
		Int16Ptr:       toPtr[int16](-16),
		Int32:          32,
		Int32Ptr:       toPtr[int32](-32),
		Int64:          64,
		Int64Ptr:       toPtr[int64](-64),
		Uint:           14,
		UintPtr:        toPtr[uint](15),
		Uint8:          8,
		Uint8Ptr:       toPtr[uint8](18),
		Uint16:         16,
		Uint16Ptr:      toPtr[uint16](116),
		Uint32:         32,
		Uint32Ptr:      toPtr[uint32](132),
		Uint64:         64,
		Uint64Ptr:      toPtr[uint64](164),
		Float32:        3.2,
		Float32Ptr:     toPtr[float32](-3.2),
		Float64:        6.4,
		Float64Ptr:     toPtr(-6.4),
		ByteArray:      []byte("hello"),
		String:         "world",
		NullStringPtr:  &sql.NullString{String: "null string", Valid: true},
		NullInt16Ptr:   &sql.NullInt16{Int16: 16, Valid: true},
		NullInt32Ptr:   &sql.NullInt32{Int32: 32, Valid: true},
		NullInt64Ptr:   &sql.NullInt64{Int64: 64, Valid: true},
		NullBoolPtr:    &sql.NullBool{Bool: true, Valid: true},
		NullFloat64Ptr: &sql.NullFloat64{Float64: 6.4, Valid: true},
		Uuid:           SimpleStructUUID,
	}
}

// SimpleStructRow 驱动以文本形式返回的一行数据，key 是列名
func SimpleStructRow(id string) map[string][]byte {
	return map[string][]byte{
		"id":               []byte(id),
		"bool":             []byte("true"),
		"bool_ptr":         []byte("false"),
		"int":              []byte("12"),
		"int_ptr":          []byte("13"),
		"int8":             []byte("8"),
		"int8_ptr":         []byte("-8"),
		"int16":            []byte("16"),
		"int16_ptr":        []byte("-16"),
		"int32":            []byte("32"),
		"int32_ptr":        []byte("-32"),
		"int64":            []byte("64"),
		"int64_ptr":        []byte("-64"),
		"uint":             []byte("14"),
		"uint_ptr":         []byte("15"),
		"uint8":            []byte("8"),
		"uint8_ptr":        []byte("18"),
		"uint16":           []byte("16"),
		"uint16_ptr":       []byte("116"),
		"uint32":           []byte("32"),
		"uint32_ptr":       []byte("132"),
		"uint64":           []byte("64"),
		"uint64_ptr":       []byte("164"),
		"float32":          []byte("3.2"),
		"float32_ptr":      []byte("-3.2"),
		"float64":          []byte("6.4"),
		"float64_ptr":      []byte("-6.4"),
		"byte_array":       []byte("hello"),
		"string":           []byte("world"),
		"null_string_ptr":  []byte("null string"),
		"null_int16_ptr":   []byte("16"),
		"null_int32_ptr":   []byte("32"),
		"null_int64_ptr":   []byte("64"),
		"null_bool_ptr":    []byte("true"),
		"null_float64_ptr": []byte("6.4"),
		"uuid":             []byte(SimpleStructUUID.String()),
	}
}

func toPtr[T any](t T) *T {
	return &t
}
