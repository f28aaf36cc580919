package api

import (
	"sync"

	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request structs:
//
//	slug: letters, digits and hyphens only
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return service.ValidSlug(fl.Field().String())
		})
	})
}
