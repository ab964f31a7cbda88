package service

import (
	"fmt"
	"unicode"

	"quiz_backend/internal/util"
)

type fieldErrors []util.FieldError

// checkStruct 先跑 binding 标签，标签表达不了的规则再由调用方追加
func checkStruct(obj interface{}) fieldErrors {
	return fieldErrors(util.StructFieldErrors(obj))
}

func (f *fieldErrors) add(field, format string, args ...interface{}) {
	*f = append(*f, util.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (f fieldErrors) has(field string) bool {
	for _, fe := range f {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return util.ValidationFailed(f)
}

// validatePasswordStrength 长度由标签保证，这里只检查字符种类
func validatePasswordStrength(errs *fieldErrors, password string) {
	if errs.has("password") {
		return
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		errs.add("password", "Password must contain at least one lowercase letter, one uppercase letter, and one number")
	}
}
