// Package validation 注册考勤相关的自定义校验标签，并把绑定错误翻译为中文提示
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"timeclock/pkg/timeutil"
)

var registerOnce sync.Once

// Register 向 gin 的默认校验引擎注册自定义标签
//
//	hhmm      — HH:mm 时刻
//	date      — YYYY-MM-DD 日期
//	yearmonth — YYYY-MM 月份
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterOn(v)
		}
	})
}

// RegisterOn 在指定校验器上注册（测试可传入独立实例）
func RegisterOn(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, _, err := timeutil.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := timeutil.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		_, _, err := timeutil.ParseYearMonth(fl.Field().String())
		return err == nil
	})
}

// FormatBindingError 将 ShouldBind 的错误转为面向用户的提示
func FormatBindingError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, io.EOF) {
		return "请求体为空"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("JSON 格式错误（第 %d 字节）", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("字段 %s 类型应为 %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, "; ")
	}

	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 不能为空", fe.Field())
	case "email":
		return fmt.Sprintf("%s 邮箱格式不正确", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s 取值必须为 [%s] 之一", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s 不能小于 %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s 不能大于 %s", fe.Field(), fe.Param())
	case "hhmm":
		return fmt.Sprintf("%s 格式应为 HH:mm", fe.Field())
	case "date":
		return fmt.Sprintf("%s 格式应为 YYYY-MM-DD", fe.Field())
	case "yearmonth":
		return fmt.Sprintf("%s 格式应为 YYYY-MM", fe.Field())
	}
	return fmt.Sprintf("%s 校验失败（%s）", fe.Field(), fe.Tag())
}
