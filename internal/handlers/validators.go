package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/splittyhq/splitty_backend/internal/utils"
)

// registerCustomValidators adds app-specific binding tags to gin's
// validator engine. Idempotent.
func registerCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// currency: a code the formatter knows a symbol for.
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return utils.IsSupportedCurrency(fl.Field().String())
	})
}
