package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics if value is nil, this includes nil pointers, maps and funcs
// wrapped in an interface.
func NotNil(name string, value any) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("expected %s to be not nil", name))
		}
	}
}
