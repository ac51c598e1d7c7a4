package validator

import (
	"errors"
	"fmt"
	"reflect"

	"cafeshop/internal/domain/model"

	playground "github.com/go-playground/validator/v10"
)

// echo.Validator の実装
type FormValidator struct {
	v *playground.Validate
}

// DI
func New() *FormValidator {
	v := playground.New()

	//メッセージにはlabelタグの名前を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		return f.Name
	})

	//"£3.00" / "3" など
	_ = v.RegisterValidation("price", func(fl playground.FieldLevel) bool {
		_, err := model.ParsePrice(fl.Field().String())
		return err == nil
	})

	return &FormValidator{v: v}
}

func (fv *FormValidator) Validate(i interface{}) error {
	return fv.v.Struct(i)
}

// Messages は画面に出すメッセージに変換する
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required.", fe.Field()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL.", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address.", fe.Field()))
		case "price":
			msgs = append(msgs, fmt.Sprintf("%s must be a number like 3.00.", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid.", fe.Field()))
		}
	}
	return msgs
}
