package render

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/savingapp/internal/models"
)

var accountCodeRe = regexp.MustCompile(`^ACC-\d{6}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("accountcode", validateAccountCode)
	_ = v.RegisterValidation("txtype", validateTransactionType)

	// Return on 'TagName' json tag instead of struct name
	v.RegisterTagNameFunc(useJSONTagNames)
	return v
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateAccountCode(fl validator.FieldLevel) bool {
	return accountCodeRe.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}
