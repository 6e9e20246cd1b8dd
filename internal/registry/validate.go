package registry

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	vatPattern        = regexp.MustCompile(`^\d{11}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}$`)
	provincePattern   = regexp.MustCompile(`^[A-Z]{2}$`)
	taxCodePattern    = regexp.MustCompile(`^([A-Z0-9]{16}|\d{11})$`)
)

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return badRequest("Il campo " + field + " è obbligatorio")
	}
	return nil
}

// addressFields normalizes and checks the Italian address codes shared by
// every party. Empty values are allowed.
func addressFields(postalCode, province, vat, taxCode *string) error {
	*postalCode = strings.TrimSpace(*postalCode)
	*province = strings.ToUpper(strings.TrimSpace(*province))
	*vat = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(*vat)), "IT"))
	*taxCode = strings.ToUpper(strings.TrimSpace(*taxCode))

	if *postalCode != "" && !postalCodePattern.MatchString(*postalCode) {
		return badRequest("Il CAP deve essere di 5 cifre")
	}
	if *province != "" && !provincePattern.MatchString(*province) {
		return badRequest("La provincia deve essere una sigla di 2 lettere")
	}
	if *vat != "" && !vatPattern.MatchString(*vat) {
		return badRequest("La partita IVA deve essere di 11 cifre")
	}
	if *taxCode != "" && !taxCodePattern.MatchString(*taxCode) {
		return badRequest("Codice fiscale non valido")
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
