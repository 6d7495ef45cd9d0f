package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В сообщениях используем имя поля из json-тега.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || valueobject.Unit(s).IsValid()
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Struct проверяет структуру по тегам validate и возвращает ошибку валидации
// с описанием первого нарушенного правила.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректные данные")
	}
	return apperror.New(apperror.ErrCodeValidation, describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("поле %s обязательно", field)
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("поле %s должно быть не короче %s символов", field, fe.Param())
		}
		return fmt.Sprintf("поле %s должно быть не меньше %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("поле %s должно быть не длиннее %s символов", field, fe.Param())
		}
		return fmt.Sprintf("поле %s должно быть не больше %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("поле %s должно быть одним из: %s", field, fe.Param())
	case "unit":
		return "некорректная единица измерения"
	case "phone":
		return "телефон должен содержать от 10 до 15 цифр"
	default:
		return fmt.Sprintf("поле %s некорректно", field)
	}
}
