package utils

import (
	"log"

	"mutapa-lotto/database"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
)

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("verification-type", ValidateVerificationType); err != nil {
		log.Fatal(err)
	}
}

func ValidateVerificationType(fl validator.FieldLevel) bool {
	switch database.VerificationType(fl.Field().String()) {
	case database.VerificationTicket, database.VerificationDraw, database.VerificationChain:
		return true
	}
	return false
}
