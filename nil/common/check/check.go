package check

import "fmt"

// PanicIfNotf panics with the formatted message on false.
// Use it for arguments that can only be wrong because of a programming error.
func PanicIfNotf(flag bool, format string, args ...any) {
	if !flag {
		panic(fmt.Sprintf(format, args...))
	}
}

// PanicIfErr panics if err is not nil.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}
