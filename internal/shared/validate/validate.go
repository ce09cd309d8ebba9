package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator encapsula o validator com as regras customizadas da rifa.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// nomes dos campos vêm da tag json
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("selection_action", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "inc", "dec", "max":
			return true
		}
		return false
	})
	return &Validator{v: v}
}

// Struct valida s pelas tags `validate`.
func (v *Validator) Struct(s any) error {
	return v.v.Struct(s)
}

// Fields converte o erro de validação num mapa campo -> mensagem,
// sem vazar nomes internos das structs.
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["error"] = "invalid request format"
		return out
	}
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = "required"
		case "min", "gte":
			out[field] = fmt.Sprintf("must be at least %s", e.Param())
		case "max", "lte":
			out[field] = fmt.Sprintf("must be at most %s", e.Param())
		case "numeric":
			out[field] = "must be a number"
		case "selection_action":
			out[field] = "must be one of inc, dec, max"
		default:
			out[field] = "invalid value"
		}
	}
	return out
}
