package valuer

import (
	"database/sql"
	"reflect"
	"strconv"
	"time"

	"github.com/coderi421/crudx/orm/internal/errs"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// 驱动返回字符串形式的时间时，依次尝试这些格式
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// assign 把驱动返回的原始值 src 转换成 dst 的类型再赋值
// src 不能是 nil
func assign(dst reflect.Value, src any) error {
	dt := dst.Type()
	if dt.Kind() == reflect.Pointer {
		ev := reflect.New(dt.Elem())
		if err := assign(ev.Elem(), src); err != nil {
			return err
		}
		dst.Set(ev)
		return nil
	}
	// sql.NullString、uuid.UUID 之类的类型自己知道怎么转换
	if reflect.PointerTo(dt).Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}

	switch s := src.(type) {
	case []byte:
		return convertBytes(dst, s)
	case string:
		return convertString(dst, s, src)
	case time.Time:
		return convertTime(dst, s)
	case bool:
		return convertBool(dst, s)
	}

	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return convertInt64(dst, sv.Int(), src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := sv.Uint()
		if u > 1<<63-1 {
			return convertString(dst, strconv.FormatUint(u, 10), src)
		}
		return convertInt64(dst, int64(u), src)
	case reflect.Float32, reflect.Float64:
		return convertFloat64(dst, sv.Float(), src)
	}
	if sv.Type().AssignableTo(dt) {
		dst.Set(sv)
		return nil
	}
	return errs.NewErrUnsupportedConversion(src, dt.String())
}

func convertInt64(dst reflect.Value, src int64, raw any) error {
	dt := dst.Type()
	if dt == timeType {
		dst.Set(reflect.ValueOf(time.Unix(src, 0)))
		return nil
	}
	switch dt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dst.OverflowInt(src) {
			return errs.NewErrConvertValue(raw, dt.String(), strconv.ErrRange)
		}
		dst.SetInt(src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if src < 0 || dst.OverflowUint(uint64(src)) {
			return errs.NewErrConvertValue(raw, dt.String(), strconv.ErrRange)
		}
		dst.SetUint(uint64(src))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(float64(src))
	case reflect.Bool:
		dst.SetBool(src != 0)
	case reflect.String:
		dst.SetString(strconv.FormatInt(src, 10))
	case reflect.Slice:
		if dt.Elem().Kind() != reflect.Uint8 {
			return errs.NewErrUnsupportedConversion(raw, dt.String())
		}
		dst.SetBytes(strconv.AppendInt(nil, src, 10))
	default:
		return errs.NewErrUnsupportedConversion(raw, dt.String())
	}
	return nil
}

func convertFloat64(dst reflect.Value, src float64, raw any) error {
	dt := dst.Type()
	switch dt.Kind() {
	case reflect.Float32, reflect.Float64:
		if dst.OverflowFloat(src) {
			return errs.NewErrConvertValue(raw, dt.String(), strconv.ErrRange)
		}
		dst.SetFloat(src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// 只接受没有小数部分的浮点数
		if src != float64(int64(src)) {
			return errs.NewErrConvertValue(raw, dt.String(), strconv.ErrSyntax)
		}
		return convertInt64(dst, int64(src), raw)
	case reflect.Bool:
		dst.SetBool(src != 0)
	case reflect.String:
		dst.SetString(strconv.FormatFloat(src, 'g', -1, 64))
	default:
		return errs.NewErrUnsupportedConversion(raw, dt.String())
	}
	return nil
}

func convertBool(dst reflect.Value, src bool) error {
	dt := dst.Type()
	switch dt.Kind() {
	case reflect.Bool:
		dst.SetBool(src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if src {
			dst.SetInt(1)
		} else {
			dst.SetInt(0)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if src {
			dst.SetUint(1)
		} else {
			dst.SetUint(0)
		}
	case reflect.String:
		dst.SetString(strconv.FormatBool(src))
	default:
		return errs.NewErrUnsupportedConversion(src, dt.String())
	}
	return nil
}

func convertBytes(dst reflect.Value, src []byte) error {
	dt := dst.Type()
	if dt.Kind() == reflect.Slice && dt.Elem().Kind() == reflect.Uint8 {
		cp := make([]byte, len(src))
		copy(cp, src)
		dst.SetBytes(cp)
		return nil
	}
	return convertString(dst, string(src), src)
}

func convertString(dst reflect.Value, src string, raw any) error {
	dt := dst.Type()
	if dt == timeType {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, src); err == nil {
				dst.Set(reflect.ValueOf(t))
				return nil
			}
		}
		return errs.NewErrUnsupportedConversion(raw, dt.String())
	}
	switch dt.Kind() {
	case reflect.String:
		dst.SetString(src)
	case reflect.Slice:
		if dt.Elem().Kind() != reflect.Uint8 {
			return errs.NewErrUnsupportedConversion(raw, dt.String())
		}
		dst.SetBytes([]byte(src))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i64, err := strconv.ParseInt(src, 10, dt.Bits())
		if err != nil {
			return errs.NewErrConvertValue(raw, dt.String(), err)
		}
		dst.SetInt(i64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u64, err := strconv.ParseUint(src, 10, dt.Bits())
		if err != nil {
			return errs.NewErrConvertValue(raw, dt.String(), err)
		}
		dst.SetUint(u64)
	case reflect.Float32, reflect.Float64:
		f64, err := strconv.ParseFloat(src, dt.Bits())
		if err != nil {
			return errs.NewErrConvertValue(raw, dt.String(), err)
		}
		dst.SetFloat(f64)
	case reflect.Bool:
		b, err := strconv.ParseBool(src)
		if err != nil {
			return errs.NewErrConvertValue(raw, dt.String(), err)
		}
		dst.SetBool(b)
	default:
		return errs.NewErrUnsupportedConversion(raw, dt.String())
	}
	return nil
}

func convertTime(dst reflect.Value, src time.Time) error {
	dt := dst.Type()
	switch {
	case dt == timeType:
		dst.Set(reflect.ValueOf(src))
	case dt.Kind() == reflect.String:
		dst.SetString(src.Format(time.RFC3339Nano))
	case dt.Kind() == reflect.Int64:
		dst.SetInt(src.Unix())
	default:
		return errs.NewErrUnsupportedConversion(src, dt.String())
	}
	return nil
}
