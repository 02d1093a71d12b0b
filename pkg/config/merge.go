package config

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// MergeConfig 将 src 中的非零值深度覆盖到 dst 并返回 dst。
// dst 为 nil 时返回 src，src 为 nil 时返回 dst，两者都为 nil 返回错误。
// 结构体逐字段合并，map 逐键合并，切片整体替换，零值不覆盖。
func MergeConfig[T any](dst, src *T) (*T, error) {
	switch {
	case dst == nil && src == nil:
		return nil, errors.New("config: both dst and src are nil")
	case dst == nil:
		return src, nil
	case src == nil:
		return dst, nil
	}

	if err := mergeValue(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()); err != nil {
		return nil, err
	}
	return dst, nil
}

func mergeValue(dst, src reflect.Value) error {
	if !src.IsValid() || src.IsZero() {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		t := src.Type()
		for i := 0; i < src.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := mergeValue(dst.Field(i), src.Field(i)); err != nil {
				return errors.Wrapf(err, "field %s", t.Field(i).Name)
			}
		}
	case reflect.Map:
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		iter := src.MapRange()
		for iter.Next() {
			merged := reflect.New(dst.Type().Elem()).Elem()
			if existing := dst.MapIndex(iter.Key()); existing.IsValid() {
				merged.Set(existing)
			}
			if err := mergeValue(merged, iter.Value()); err != nil {
				return err
			}
			dst.SetMapIndex(iter.Key(), merged)
		}
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return mergeValue(dst.Elem(), src.Elem())
	default:
		if !dst.CanSet() {
			return errors.Newf("cannot set %s", dst.Type())
		}
		dst.Set(src)
	}
	return nil
}
