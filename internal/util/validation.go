package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 错误里的字段名与请求体保持一致
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(requestFieldName)
	}
}

func requestFieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// fieldPath 去掉命名空间里的结构体名，questions[0].options 这样的路径原样保留
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "Please provide a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", name, bound, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must have %s %s items", name, bound, fe.Param())
		default:
			return fmt.Sprintf("%s must be %s %s", name, bound, fe.Param())
		}
	}
	return name + " is invalid"
}

// TranslateValidation 把 validator 的错误转换为字段错误，其他错误返回 nil
func TranslateValidation(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return fields
}

// StructFieldErrors 按 binding 标签校验，与 gin 绑定时使用同一个校验器
func StructFieldErrors(obj interface{}) []FieldError {
	err := binding.Validator.ValidateStruct(obj)
	if err == nil {
		return nil
	}
	if fields := TranslateValidation(err); fields != nil {
		return fields
	}
	return []FieldError{{Message: err.Error()}}
}

// ValidateStruct 校验失败时返回 VALIDATION_FAILED 错误
func ValidateStruct(obj interface{}) error {
	if fields := StructFieldErrors(obj); len(fields) > 0 {
		return ValidationFailed(fields)
	}
	return nil
}

// BindingError 请求绑定失败：标签校验错误带字段明细，解析错误只给出概要
func BindingError(err error, message string) error {
	if fields := TranslateValidation(err); len(fields) > 0 {
		return ValidationFailed(fields)
	}
	return NewError(KindValidationFailed, message)
}
