package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// RequestValidator はecho.Validatorの実装（リクエストDTOのタグ検証）
type RequestValidator struct {
	v *playground.Validate
}

func New() *RequestValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	//エラーメッセージはjsonタグ名で出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
